// Package proximity contains the pure decision logic of the tag monitor.
//
// It defines the records flowing from the scanner (Advertisement, DetectionEvent),
// the state owned by the alert controller (State, Alert) and the three stateless
// deciders: Filter, Classifier and TimeoutMonitor. Nothing here blocks or locks.
package proximity
