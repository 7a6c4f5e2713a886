package domain

// Recorder accumulates events produced by an aggregate's own operations so
// that publication can wait until the surrounding transaction has
// committed. Mutating operations call Record; only the code owning the
// transaction boundary drains and publishes.
type Recorder struct {
	pending []Event
}

// Record appends an event to the pending list.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// CollectEvents returns the pending events and clears the list in one
// step. Each recorded event is returned by exactly one call.
func (r *Recorder) CollectEvents() []Event {
	events := r.pending
	r.pending = nil
	return events
}

// PeekEvents returns the pending events without clearing them. Intended
// for diagnostics and tests.
func (r *Recorder) PeekEvents() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}
