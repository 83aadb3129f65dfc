package service

import "sync"

// RevealTracker lets a caller drop results that arrive after the user moved on to another domain object.
type RevealTracker struct {
	mu     sync.Mutex
	active string
	seq    uint64
}

// RevealTicket identifies one reveal started through a RevealTracker.
type RevealTicket struct {
	tracker        *RevealTracker
	domainObjectID string
	seq            uint64
}

// Begin marks `domainObjectID` as the active object. Tickets handed out earlier become stale.
func (t *RevealTracker) Begin(domainObjectID string) RevealTicket {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = domainObjectID
	t.seq++

	return RevealTicket{
		tracker:        t,
		domainObjectID: domainObjectID,
		seq:            t.seq,
	}
}

// Current reports whether the result of this reveal may still be applied.
func (k RevealTicket) Current() bool {
	if k.tracker == nil {
		return false
	}

	k.tracker.mu.Lock()
	defer k.tracker.mu.Unlock()
	return k.tracker.active == k.domainObjectID && k.tracker.seq == k.seq
}
