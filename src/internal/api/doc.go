// Package api exposes the monitored routers over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/v1/routers
//	GET  /api/v1/routers/{name}/snapshot
//	GET  /api/v1/routers/{name}/device
//	GET  /api/v1/routers/{name}/entities
//	POST /api/v1/routers/{name}/refresh
//	GET  /api/v1/routers/{name}/actions
//	POST /api/v1/routers/{name}/actions
//	POST /api/v1/routers/{name}/actions/{action}
//
// Successful responses wrap their payload in a "data" field:
//
//	{"data": { ... }}
//
// Errors use:
//
//	{"error": {"code": "...", "message": "..."}}
package api
