// Package notify delivers push alerts to the parent's phone.
//
// Dispatcher hands alerts to a background worker so the caller never waits on
// the network; every attempt is made once and its outcome is only logged and
// counted. FCMSender talks to Firebase Cloud Messaging (HTTP v1 API) using a
// Google service account.
package notify
