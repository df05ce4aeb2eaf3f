package notifications

import (
	"strings"
	"time"
)

// Priority drives the visual severity of a notification.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts the wire spelling of a priority, case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Origin records which transport first delivered a record.
type Origin string

const (
	OriginPush Origin = "push"
	OriginPull Origin = "pull"
)

// Record is one durable notification in the dashboard feed.
//
// Read is the only field the user mutates. Display fields are fixed after
// creation: later ingestion of the same id only fills in blanks.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Icon      string    `json:"icon,omitempty"`
	Action    string    `json:"action,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	Origin    Origin    `json:"-"`

	// PendingConfirmation is set while a local mark-read has not been
	// acknowledged by the server.
	PendingConfirmation bool `json:"pendingConfirmation"`
	// Provisional marks a push record that arrived without a server id.
	Provisional bool `json:"provisional,omitempty"`

	priorityDefaulted  bool
	createdAtDefaulted bool
	seq                uint64
}

type fingerprint struct {
	title   string
	message string
}

func (r *Record) fingerprint() fingerprint {
	return fingerprint{title: r.Title, message: r.Message}
}

// normalize fills missing priority and timestamp and remembers that it did,
// so a later authoritative copy can replace them.
func (r *Record) normalize(origin Origin, now time.Time) {
	r.Origin = origin
	r.PendingConfirmation = false
	r.Provisional = false

	if p, ok := ParsePriority(string(r.Priority)); ok {
		r.Priority = p
	} else {
		r.Priority = PriorityNormal
		r.priorityDefaulted = true
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
		r.createdAtDefaulted = true
	}
}

// merge folds incoming into r and reports whether anything changed.
// Read only ever moves from false to true.
func (r *Record) merge(incoming *Record) bool {
	changed := false

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&r.Title, incoming.Title)
	fill(&r.Message, incoming.Message)
	fill(&r.Icon, incoming.Icon)
	fill(&r.Action, incoming.Action)

	if r.priorityDefaulted && !incoming.priorityDefaulted {
		r.Priority = incoming.Priority
		r.priorityDefaulted = false
		changed = true
	}

	if r.createdAtDefaulted && !incoming.createdAtDefaulted {
		r.CreatedAt = incoming.CreatedAt
		r.createdAtDefaulted = false
		changed = true
	}

	if incoming.Read && !r.Read {
		r.Read = true
		changed = true
	}

	// The server reporting the record as read settles any outstanding
	// confirmation.
	if incoming.Read && incoming.Origin == OriginPull && r.PendingConfirmation {
		r.PendingConfirmation = false
		changed = true
	}

	return changed
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
