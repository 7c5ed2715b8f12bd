// Package metrics provides a Prometheus implementation of driven.MetricsRecorder.
//
// Metrics are registered on a private registry so that several recorders
// (one per test, for instance) never collide with the global default.
// Handler exposes the registry in the Prometheus text format.
package metrics
