// Package metrics exposes Prometheus metrics for stubd servers.
//
// Each Metrics value owns a private registry, so several servers in one test
// binary never collide on metric names.
//
// # Metrics
//
//   - stubd_requests_total: dispatched requests (labels: context, outcome)
//   - stubd_request_duration_seconds: dispatch latency (labels: context)
//   - stubd_borrows_total: borrow attempts (labels: result)
//   - stubd_borrow_active: 1 while a borrow scope is running
//
// The context label is "original" for a server's own rules and "borrowed"
// while a borrow scope is installed. Outcome is one of hit, miss or error.
package metrics
