package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of one upload request.
type State int

const (
	// StateReceived - Upload accepted, pipeline not yet started.
	StateReceived State = iota
	// StateTranscribing - Speech-to-text call in flight.
	StateTranscribing
	// StateLabeling - Speaker-labeling call in flight.
	StateLabeling
	// StateSummarizing - Summarization call in flight.
	StateSummarizing
	// StateEmbedding - Embedding call in flight.
	StateEmbedding
	// StateStoring - Session record being persisted.
	StateStoring
	// StateDone - Record stored. Terminal.
	StateDone
	// StateFailed - A stage failed; nothing was stored. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateLabeling:
		return "LABELING"
	case StateSummarizing:
		return "SUMMARIZING"
	case StateEmbedding:
		return "EMBEDDING"
	case StateStoring:
		return "STORING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// IsTerminal returns true if the state is terminal (DONE or FAILED).
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Errors for invalid state transitions.
var (
	ErrLifecycleTerminal  = errors.New("lifecycle is in a terminal state")
	ErrTransitionBackward = errors.New("lifecycle cannot move backward")
	ErrTransitionSkips    = errors.New("lifecycle cannot skip a stage")
)

// Lifecycle tracks the state machine for a single upload request.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	RECEIVED → TRANSCRIBING → LABELING → SUMMARIZING → EMBEDDING → STORING → DONE
//	    │            │            │            │            │          │
//	    └────────────┴────────────┴────────────┴────────────┴──────────┴──→ FAILED
//
// Rules:
//   - stages advance strictly one at a time, in order; no retry transitions
//   - any non-terminal state may fail
//   - DONE and FAILED are terminal
type Lifecycle struct {
	mu        sync.RWMutex
	sessionID string
	state     State
}

// NewLifecycle creates a lifecycle in RECEIVED state.
func NewLifecycle(sessionID string) *Lifecycle {
	return &Lifecycle{
		sessionID: sessionID,
		state:     StateReceived,
	}
}

// SessionID returns the session id this lifecycle tracks.
func (l *Lifecycle) SessionID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Advance moves to the given state, which must be the immediate successor
// of the current one.
func (l *Lifecycle) Advance(to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.state.IsTerminal():
		return fmt.Errorf("%w: %s", ErrLifecycleTerminal, l.state)
	case to <= l.state:
		return fmt.Errorf("%w: %s -> %s", ErrTransitionBackward, l.state, to)
	case to != l.state+1:
		return fmt.Errorf("%w: %s -> %s", ErrTransitionSkips, l.state, to)
	}
	l.state = to
	return nil
}

// Fail transitions to FAILED from any non-terminal state.
// Returns true if the lifecycle was failed, false if already terminal.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}

// IsDone returns true if the pipeline completed successfully.
func (l *Lifecycle) IsDone() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateDone
}
