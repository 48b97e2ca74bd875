package scanner

import (
	"context"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
)

// DefaultBufferSize is the recommended capacity of the advertisement channel.
const DefaultBufferSize = 64

// Scanner produces advertisements until ctx is done or the source is exhausted.
// Implementations never close out; the caller owns it.
type Scanner interface {
	Scan(ctx context.Context, out chan<- proximity.Advertisement) error
}

// offer delivers adv without blocking; it reports false when the record was dropped.
func offer(ctx context.Context, out chan<- proximity.Advertisement, adv proximity.Advertisement) bool {
	select {
	case out <- adv:
		return true
	default:
		logger.DebugKV(ctx, "Advertisement dropped, monitor is behind", "name", adv.Name, "rssi", adv.RSSI)
		return false
	}
}
