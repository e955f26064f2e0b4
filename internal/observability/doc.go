// Package observability provides the zap logger factory and the Prometheus
// metrics used by the gateway.
package observability
