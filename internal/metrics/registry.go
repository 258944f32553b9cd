// Package metrics exposes Prometheus instrumentation for the core's
// cryptographic operations. The core never serves the registry itself; hosts
// mount Registry on whatever telemetry surface they already run.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "buildit"

// Registry collects every metric the core emits.
var Registry = prometheus.NewRegistry()
