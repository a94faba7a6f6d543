// Package tracing is a thin wrapper around OpenTelemetry. The processor opens
// one span per run, a child span per task and a CLIENT span per handoff.
package tracing
