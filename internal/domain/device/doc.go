// Package device contains the registration of the phone that receives push alerts.
//
// It defines Actor (who registered) and Registration (the push token with its
// provenance) with Clone helpers to avoid leaking internal references.
package device
