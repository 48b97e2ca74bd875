// Package common holds helpers shared by several services.
//
// It provides a gRPC client wrapper for GuardService with call timeouts and a
// helper to detect the current system actor (hostname/username) for device
// registrations.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
