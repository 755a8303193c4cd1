package guardrail

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	// Attempts before a lockout. The fourth violation locks.
	lockoutThreshold = 4
	// How long a locked-out user waits.
	lockoutDuration = 5 * time.Minute
	// Idle time after which the attempt counter resets.
	idleReset = 10 * time.Minute
)

// tier pools. One phrasing is picked at random per refusal so repeat
// offenders don't see a canned loop.
var refusalTiers = [][]string{
	{
		"I can't do your homework for you, but I'm happy to tell you what's due and when so you can plan it out.",
		"That's one you have to do yourself! I can show you your assignments, grades, and deadlines instead.",
		"Nice try! Doing the work is your job — mine is keeping you on top of what's due.",
	},
	{
		"Asking again won't change the answer — I don't do homework. Want to see what's actually on your plate?",
		"Still no. I can help you find time for it by showing what's due, but the work itself is yours.",
		"Second time's not the charm. Let's look at your missing work instead so you know where to start.",
	},
	{
		"Third strike. One more homework request and I'm going to stop answering for a while.",
		"I've said no three times now. Keep pushing and you'll be locked out for a bit.",
		"Last warning: the next homework request gets you a timeout from me.",
	},
	{
		"That's four. I'm done answering for the next five minutes — use them on the assignment.",
		"Locked out. Come back in five minutes, ideally with your homework started.",
	},
}

var lockoutResponses = []string{
	"Still locked out. Try again in %d seconds.",
	"Nope, the timeout is still running — %d seconds to go.",
}

// Refusal is the scripted outcome of a policy violation.
type Refusal struct {
	Message   string
	LockedOut bool
	// Remaining is non-zero only while an existing lockout is running.
	Remaining time.Duration
}

// refusalState is the per-user violation record.
type refusalState struct {
	attempts    int
	lastAttempt time.Time
	lockedUntil time.Time
}

// Tracker owns the per-user refusal state. It is safe for concurrent use;
// a single mutex guards the map since the working set is a handful of
// users, not a fleet.
type Tracker struct {
	mu    sync.Mutex
	users map[string]*refusalState

	// Injectable for deterministic tests.
	now  func() time.Time
	pick func(n int) int
}

// NewTracker returns a Tracker using the wall clock and math/rand for
// phrase selection.
func NewTracker() *Tracker {
	return &Tracker{
		users: make(map[string]*refusalState),
		now:   time.Now,
		pick:  rand.Intn,
	}
}

// HandleViolation records a policy violation for userID and returns the
// refusal matching the user's escalation tier. Callers invoke it on every
// safety-gate or NLU "blocked" hit.
func (t *Tracker) HandleViolation(userID string) Refusal {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	st, ok := t.users[userID]
	if !ok {
		st = &refusalState{}
		t.users[userID] = st
	}

	// Already locked: report remaining time, don't count the attempt.
	if now.Before(st.lockedUntil) {
		remaining := st.lockedUntil.Sub(now)
		secs := int(remaining.Round(time.Second).Seconds())
		msg := fmt.Sprintf(lockoutResponses[t.pick(len(lockoutResponses))], secs)
		return Refusal{Message: msg, LockedOut: true, Remaining: remaining}
	}

	if !st.lastAttempt.IsZero() && now.Sub(st.lastAttempt) > idleReset {
		st.attempts = 0
	}

	st.attempts++
	st.lastAttempt = now

	if st.attempts >= lockoutThreshold {
		st.lockedUntil = now.Add(lockoutDuration)
		st.attempts = 0
		pool := refusalTiers[lockoutThreshold-1]
		return Refusal{Message: pool[t.pick(len(pool))], LockedOut: true}
	}

	pool := refusalTiers[st.attempts-1]
	return Refusal{Message: pool[t.pick(len(pool))]}
}

// IsLockedOut reports whether userID is currently locked out and, if so,
// how long remains. It gates every incoming message, not only violations.
func (t *Tracker) IsLockedOut(userID string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.users[userID]
	if !ok {
		return false, 0
	}
	now := t.now()
	if now.Before(st.lockedUntil) {
		return true, st.lockedUntil.Sub(now)
	}
	return false, 0
}

// Sweep drops records whose last violation is older than horizon and whose
// lockout has expired, bounding the map under many distinct user IDs.
// It returns the number of entries removed.
func (t *Tracker) Sweep(horizon time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for id, st := range t.users {
		if now.Before(st.lockedUntil) {
			continue
		}
		if now.Sub(st.lastAttempt) > horizon {
			delete(t.users, id)
			removed++
		}
	}
	return removed
}
