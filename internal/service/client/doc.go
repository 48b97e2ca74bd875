// Package client implements the tagguard-client commands.
//
// The commands connect to the daemon's gRPC endpoint to print the tag status
// or to register the phone that receives push alerts.
package client
