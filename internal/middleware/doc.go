// Package middleware provides HTTP middleware for the metrics endpoint.
//
// It includes:
//   - Request logging in W3C Extended Log Format through the app logger
//   - Prometheus request counters labelled by mux route template
package middleware
