// Package observability records analysis runs as JSON Lines events and
// derives metrics and alerts from them on demand. Metrics can also be
// exported in the Prometheus text format.
package observability
