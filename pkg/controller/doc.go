// Package controller contains HTTP middlewares and helper handlers used by
// the API server.
//
// Provided middlewares:
//   - WithCORS: adds permissive CORS headers and handles OPTIONS preflight.
//   - WithLogger: attaches a request-scoped logger and request ID to the
//     context and writes a structured access log entry.
//   - WithRecover: converts handler panics into 500 responses so a single
//     bad request can never take the serving process down.
//
// Provided helpers:
//   - PprofMux: returns a ServeMux exposing net/http/pprof handlers.
package controller
