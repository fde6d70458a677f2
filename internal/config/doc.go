// Package config loads server and worker settings from an optional
// config.yaml and MARGINALIA_* environment variables, then validates them.
package config
