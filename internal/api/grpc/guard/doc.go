// Package guard implements the gRPC transport of the tag monitor.
//
// The GuardService is described by hand on top of protobuf well-known types
// (Empty and Struct), so it needs no generated code: GetStatus reports the
// current proximity and alert state, RegisterDevice stores the phone's push token.
package guard
