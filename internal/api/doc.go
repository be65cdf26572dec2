// Package api holds the route table and the HTTP handlers behind it: the
// admin console, the OpenAPI schema and docs, build info and health checks.
package api
