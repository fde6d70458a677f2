// Package api exposes the annotation service over HTTP. Handlers decode and
// validate requests, call into internal/service and map service errors to
// status codes with MapErrorToStatusCode. Routing lives in cmd/server.
package api
