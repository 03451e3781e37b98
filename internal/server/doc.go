// Package server exposes the analysis pipeline over HTTP.
//
// POST /api/analyze accepts a multipart upload in the "audioFile" field and
// responds with {"score", "summary"} or {"error"}. GET /api/health reports
// liveness and /metrics serves Prometheus metrics when a handler is supplied.
package server
