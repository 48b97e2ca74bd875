package scanner

import (
	"context"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
)

// BLEScanner reports every advertisement seen by the default Bluetooth adapter.
type BLEScanner struct {
	adapter *bluetooth.Adapter
	now     func() time.Time
}

// NewBLEScanner returns a scanner on the host's default adapter.
func NewBLEScanner() *BLEScanner {
	return &BLEScanner{
		adapter: bluetooth.DefaultAdapter,
		now:     time.Now,
	}
}

// Scan enables the adapter and blocks while scanning; cancelling ctx stops the scan.
func (s *BLEScanner) Scan(ctx context.Context, out chan<- proximity.Advertisement) error {
	ctx = logger.WithName(ctx, "ble")

	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			if err := s.adapter.StopScan(); err != nil {
				logger.ErrorKV(ctx, "Failed to stop scan", "error", err)
			}
		case <-stopped:
		}
	}()

	logger.Info(ctx, "Bluetooth scan started")

	err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		offer(ctx, out, proximity.Advertisement{
			Name:       result.LocalName(),
			RSSI:       int(result.RSSI),
			ObservedAt: s.now(),
		})
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("bluetooth scan: %w", err)
	}

	logger.Info(ctx, "Bluetooth scan stopped")

	return nil
}
