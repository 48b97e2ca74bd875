// Package config defines the tag-guard settings and helpers to load, validate
// and save them in YAML format.
//
// Validation fills defaults for every zero value, so an empty file yields the
// stock CHILD_TAG monitor: -75 dBm threshold, 5 weak samples, 3s alerts,
// 10s signal-loss timeout and a 1s tick.
package config
