// Package guard wires the tag-guard daemon: scanner, alert controller, buzzer,
// push dispatcher, gRPC status endpoint and Prometheus endpoint, all stopped
// together when the process is interrupted.
package guard
