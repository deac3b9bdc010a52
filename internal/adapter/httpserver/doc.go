// Package httpserver exposes the stream redirect endpoint and the operational
// endpoints (health, version, metrics) on an Echo server.
package httpserver
