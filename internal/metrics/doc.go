// Package metrics exposes Prometheus collectors for the sticker pipeline and
// the HTTP server that publishes them.
package metrics
