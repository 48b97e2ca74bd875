// Package monitor implements the alert controller of the tag monitor and the
// loop that feeds it advertisements and clock ticks.
//
// The Controller owns the proximity bookkeeping and the alert lifecycle behind
// a single mutex, so a scanner callback and the ticker may call it from
// different goroutines without ever producing two overlapping alerts.
package monitor
