package proximity

// Filter keeps only advertisements of the configured tag.
type Filter struct {
	// Target is the exact advertised name of the tag.
	Target string
}

// Accept converts a matching advertisement to a DetectionEvent.
// The second result is false for any other device, including nameless ones.
func (f Filter) Accept(adv Advertisement) (DetectionEvent, bool) {
	if adv.Name == "" || adv.Name != f.Target {
		return DetectionEvent{}, false
	}

	return DetectionEvent{
		TagMatched: true,
		RSSI:       adv.RSSI,
		ObservedAt: adv.ObservedAt,
	}, true
}
