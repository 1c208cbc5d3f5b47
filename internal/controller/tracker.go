package controller

import "time"

// gate is the send-phase decision of the request tracker
type gate int

const (
	gateSend gate = iota // nothing outstanding, or the window expired
	gateHold             // a request is outstanding and still inside its window
	gateDead             // too many windows expired without a reply
)

// requestTracker is either idle or awaiting a response since some time with
// a number of attempts remaining. Any inbound frame returns it to idle with
// a full budget.
type requestTracker struct {
	budget    int
	awaiting  bool
	since     time.Time
	remaining int
}

func newRequestTracker(budget int) requestTracker {
	return requestTracker{budget: budget, remaining: budget}
}

// Outstanding reports whether a request is awaiting its response
func (r *requestTracker) Outstanding() bool {
	return r.awaiting
}

// Sent arms the tracker
func (r *requestTracker) Sent(now time.Time) {
	r.awaiting = true
	r.since = now
}

// Received records inbound traffic
func (r *requestTracker) Received() {
	r.awaiting = false
	r.remaining = r.budget
}

// Reset returns to idle with a full budget
func (r *requestTracker) Reset() {
	r.Received()
}

// Check decides whether the send phase may run. Each expired window spends
// one attempt and returns the tracker to idle; spending the last one reports
// gateDead. Only a successful send re-arms it.
func (r *requestTracker) Check(now time.Time, window time.Duration) gate {
	if !r.awaiting {
		return gateSend
	}
	if now.Sub(r.since) <= window {
		return gateHold
	}
	r.awaiting = false
	r.remaining--
	if r.remaining <= 0 {
		return gateDead
	}
	return gateSend
}
