// Package httpapi exposes an analyzer Client over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /api/v1/state        connection state and plant address
//	GET  /api/v1/sample       latest complete sample, 404 before the first one
//	GET  /api/v1/history      columnar history
//	GET  /api/v1/metrics      metrics window
//	GET  /api/v1/snapshot     all of the above in one consistent copy
//	POST /api/v1/commands     wire command JSON, forwarded to the plant
//	POST /api/v1/connect
//	POST /api/v1/disconnect
//	GET  /metrics             Prometheus exposition
//
// The API only reads client state through snapshots; commands and connection changes go through the
// client's own methods.
package httpapi
