// Package http holds JSON response helpers and the container inspector
// handlers.
package http
