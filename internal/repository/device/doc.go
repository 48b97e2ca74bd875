// Package device implements persistence for the push target registration.
//
// The FileRepository stores and loads the registration as JSON on disk and
// exposes a Repository interface that the guard service depends on.
package device
