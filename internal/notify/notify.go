// internal/notify/notify.go

// Package notify manages ephemeral, timed UI messages independent of game
// logic: a short-lived status toast and a full-screen outcome overlay. Each
// channel holds at most one notification; a new message replaces the old one
// and its remaining TTL is discarded.
package notify

import (
	"strings"
	"sync"
	"time"
)

// Severity tags a notification for rendering.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "ok"
	case SeverityWarning:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// OutcomeKind selects the overlay TTL: losses and busts linger longer than
// wins and ties.
type OutcomeKind uint8

const (
	OutcomeWin OutcomeKind = iota
	OutcomeTie
	OutcomeLoss
	OutcomeBust
)

const (
	// ToastTTL is the fixed lifetime of the status toast channel.
	ToastTTL = 3 * time.Second

	// OverlayShortTTL covers wins and ties, OverlayLongTTL losses and busts.
	OverlayShortTTL = 6 * time.Second
	OverlayLongTTL  = 11 * time.Second
)

// Notification is one ephemeral message on a channel.
type Notification struct {
	Message   string
	Severity  Severity
	CreatedAt time.Time
	TTL       time.Duration
}

func (n Notification) expired(now time.Time) bool {
	return now.After(n.CreatedAt.Add(n.TTL))
}

// inFlightPhrases is the lexicon of status prefixes that indicate a request
// is on the wire. Matching any of them turns on the progress indicator.
var inFlightPhrases = []string{
	"placing bet",
	"approving",
	"hitting",
	"standing",
	"withdrawing",
	"setting name",
	"editing hand",
	"force ending",
	"updating leaderboard",
	"waiting for confirmation",
	"submitting",
}

// InFlight reports whether a free-text status matches the known lexicon of
// pending phrases.
func InFlight(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, p := range inFlightPhrases {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Scheduler holds the two notification channels. Safe for concurrent use.
type Scheduler struct {
	mu          sync.Mutex
	toast       *Notification
	overlay     *Notification
	statusSetAt time.Time
}

func NewScheduler() *Scheduler { return &Scheduler{} }

// SetStatus replaces the toast channel. The progress clock resets only when
// the text actually changes.
func (s *Scheduler) SetStatus(message string, severity Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.toast == nil || s.toast.Message != message {
		s.statusSetAt = now
	}
	s.toast = &Notification{
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		TTL:       ToastTTL,
	}
}

// ShowOutcome replaces the overlay channel with a round outcome.
func (s *Scheduler) ShowOutcome(message string, kind OutcomeKind) {
	ttl := OverlayShortTTL
	if kind == OutcomeLoss || kind == OutcomeBust {
		ttl = OverlayLongTTL
	}
	severity := SeveritySuccess
	switch kind {
	case OutcomeTie:
		severity = SeverityInfo
	case OutcomeLoss, OutcomeBust:
		severity = SeverityError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = &Notification{
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
}

// Toast returns the active toast, if any. Expiry is evaluated lazily at read
// time, so no timer goroutines are needed.
func (s *Scheduler) Toast() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toast == nil || s.toast.expired(time.Now()) {
		return Notification{}, false
	}
	return *s.toast, true
}

// Overlay returns the active outcome overlay, if any.
func (s *Scheduler) Overlay() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay == nil || s.overlay.expired(time.Now()) {
		return Notification{}, false
	}
	return *s.overlay, true
}

// ClearOverlay dismisses the overlay early, e.g. when a new round starts.
func (s *Scheduler) ClearOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = nil
}

// Progress reports the indeterminate progress fraction for an in-flight
// status. It is a time-based animation, not a measurement: the fraction
// climbs asymptotically and never reaches 1. The second return is false when
// the current status is not an in-flight phrase.
func (s *Scheduler) Progress() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toast == nil || !InFlight(s.toast.Message) {
		return 0, false
	}
	elapsed := time.Since(s.statusSetAt).Seconds()
	return elapsed / (elapsed + 4.0), true
}
