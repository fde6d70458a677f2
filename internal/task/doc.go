// Package task runs the background work of the annotation platform on asynq.
//
// It defines the task registry (type names, queues and routing), JSON
// payloads, an Enqueuer used by the API, the worker Request that carries the
// shared dependencies, and a lifecycle middleware that clears feature flags
// before each task and wraps it in a database transaction: committed when the
// handler succeeds, rolled back and reported when it fails.
//
// Two hourly schedule entries expire stale auth tickets and developer tokens.
package task
