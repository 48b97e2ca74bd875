package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
)

// DefaultReplayInterval spaces replayed records.
const DefaultReplayInterval = time.Second

// ErrBadRecord is returned for lines that are not "name,rssi" or "pause <duration>".
var ErrBadRecord = errors.New("malformed replay record")

// ReplayScanner plays back a recorded session, one record per interval.
//
// Each line is either "name,rssi", "pause <duration>" (silence, e.g. "pause 11s"),
// blank, or a "#" comment.
type ReplayScanner struct {
	source   io.Reader
	interval time.Duration
}

// NewReplayScanner reads records from source; a non-positive interval uses DefaultReplayInterval.
func NewReplayScanner(source io.Reader, interval time.Duration) *ReplayScanner {
	if interval <= 0 {
		interval = DefaultReplayInterval
	}

	return &ReplayScanner{
		source:   source,
		interval: interval,
	}
}

// Scan emits every record and returns at the end of the source.
func (s *ReplayScanner) Scan(ctx context.Context, out chan<- proximity.Advertisement) error {
	ctx = logger.WithName(ctx, "replay")

	lines := bufio.NewScanner(s.source)
	lineNumber := 0

	for lines.Scan() {
		lineNumber++

		line := strings.TrimSpace(lines.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		wait := s.interval

		if rest, ok := strings.CutPrefix(line, "pause "); ok {
			pause, err := time.ParseDuration(strings.TrimSpace(rest))
			if err != nil || pause < 0 {
				return fmt.Errorf("line %d: %q: %w", lineNumber, line, ErrBadRecord)
			}

			wait = pause
		} else {
			adv, err := parseRecord(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNumber, err)
			}

			adv.ObservedAt = time.Now()
			offer(ctx, out, adv)
		}

		if err := sleep(ctx, wait); err != nil {
			return nil //nolint:nilerr // Cancellation ends a replay normally.
		}
	}

	if err := lines.Err(); err != nil {
		return fmt.Errorf("read replay: %w", err)
	}

	logger.Infof(ctx, "Replay finished after %d lines", lineNumber)

	return nil
}

// parseRecord parses "name,rssi".
func parseRecord(line string) (proximity.Advertisement, error) {
	name, rawRSSI, ok := strings.Cut(line, ",")
	if !ok {
		return proximity.Advertisement{}, fmt.Errorf("%q: %w", line, ErrBadRecord)
	}

	rssi, err := strconv.Atoi(strings.TrimSpace(rawRSSI))
	if err != nil {
		return proximity.Advertisement{}, fmt.Errorf("%q: %w", line, ErrBadRecord)
	}

	return proximity.Advertisement{
		Name: strings.TrimSpace(name),
		RSSI: rssi,
	}, nil
}

// sleep waits for d or ctx cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
