// Package scanner adapts advertisement sources to the monitor's channel.
//
// BLEScanner listens to the host Bluetooth adapter; ReplayScanner plays a
// recorded session back for bench tests without radio hardware. Both deliver
// records without ever blocking their producer on a slow consumer.
package scanner
