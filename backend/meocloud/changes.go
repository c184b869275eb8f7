package meocloud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/pacer"
	"github.com/pkg/errors"
)

// State is where a ChangeFeed is in its cycle
type State int

// State definitions
const (
	StateBootstrap State = iota // no cursor yet, ask for the latest
	StatePoll                   // pull changes since the cursor
	StateWait                   // long poll until there are changes
)

var stateToString = []string{
	StateBootstrap: "BOOTSTRAP",
	StatePoll:      "POLL",
	StateWait:      "WAIT",
}

// String turns a State into a string
func (s State) String() string {
	if s < 0 || int(s) >= len(stateToString) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateToString[s]
}

// Outcome is the result of the last successful step
type Outcome int

// Outcome definitions
const (
	OutcomeNone      Outcome = iota // no step has succeeded yet
	OutcomeCursor                   // got the latest cursor
	OutcomePage                     // pulled a page of changes
	OutcomeChanges                  // long poll reported changes
	OutcomeNoChanges                // long poll timed out
)

var outcomeToString = []string{
	OutcomeNone:      "none",
	OutcomeCursor:    "cursor",
	OutcomePage:      "page",
	OutcomeChanges:   "changes",
	OutcomeNoChanges: "no changes",
}

// String turns an Outcome into a string
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeToString) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeToString[o]
}

// PollState is a snapshot of a ChangeFeed
type PollState struct {
	State       State
	Cursor      string
	Backoff     time.Duration // the server's requested gap between long polls
	LastOutcome Outcome
}

// ApplyFunc is called with every page of changes pulled.
//
// If it returns an error the step fails and the cursor isn't
// advanced, so the same page will be pulled again by the next step.
type ApplyFunc func(ctx context.Context, page *api.DeltaPage) error

// FeedOption configures a ChangeFeed
type FeedOption func(*ChangeFeed)

// WithCursor starts the feed from cursor rather than the latest state
func WithCursor(cursor string) FeedOption {
	return func(f *ChangeFeed) {
		if cursor != "" {
			f.state.Cursor = cursor
			f.state.State = StatePoll
		}
	}
}

// WithClock sets the clock used to pace long polls
func WithClock(c clock.Clock) FeedOption {
	return func(f *ChangeFeed) {
		f.pacer = pacer.NewWithClock(c)
	}
}

// WithLongPollTimeout sets how long the server may hold a long poll
func WithLongPollTimeout(timeout time.Duration) FeedOption {
	return func(f *ChangeFeed) {
		f.timeout = timeout
	}
}

// ChangeFeed follows the changes made to the account.
//
// It is a state machine: BOOTSTRAP gets a cursor, POLL pulls pages of
// changes since it and WAIT long polls until there are more.  Steps
// are serialised so there is never more than one call outstanding
// against the cursor.
type ChangeFeed struct {
	c       *Client
	pacer   *pacer.Pacer          // spaces out long polls
	token   *pacer.TokenDispenser // one step at a time
	timeout time.Duration         // long poll timeout

	mu    sync.Mutex // protects state
	state PollState
}

// NewChangeFeed makes a ChangeFeed in the BOOTSTRAP state unless
// WithCursor is given.
func (c *Client) NewChangeFeed(opts ...FeedOption) *ChangeFeed {
	f := &ChangeFeed{
		c:       c,
		pacer:   pacer.New(),
		token:   pacer.NewTokenDispenser(1),
		timeout: c.opt.LongPollTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// String converts this ChangeFeed to a string
func (f *ChangeFeed) String() string {
	return f.c.String() + " changes"
}

// State returns a snapshot of the feed's state
func (f *ChangeFeed) State() PollState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// setState replaces the state, logging the transition
func (f *ChangeFeed) setState(newState PollState) {
	f.mu.Lock()
	oldState := f.state.State
	f.state = newState
	f.mu.Unlock()
	if oldState != newState.State {
		fs.Debugf(f, "%v -> %v", oldState, newState.State)
	}
}

// Step makes one transition of the state machine.
//
// On error the state is left as it was.  Non 2xx responses are
// returned as *api.Error.  If ctx is cancelled the pending call is
// aborted and ctx.Err() is returned.
func (f *ChangeFeed) Step(ctx context.Context, apply ApplyFunc) (err error) {
	if err := f.token.GetContext(ctx); err != nil {
		return err
	}
	defer f.token.Put()

	st := f.State()
	switch st.State {
	case StateBootstrap:
		err = f.bootstrap(ctx, st)
	case StatePoll:
		err = f.poll(ctx, st, apply)
	case StateWait:
		err = f.wait(ctx, st)
	default:
		err = errors.Errorf("unknown state %v", st.State)
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// bootstrap gets the latest cursor
func (f *ChangeFeed) bootstrap(ctx context.Context, st PollState) error {
	cursor, err := f.c.GetLatestCursor(ctx)
	if err != nil {
		return err
	}
	f.setState(PollState{
		State:       StateWait,
		Cursor:      cursor,
		LastOutcome: OutcomeCursor,
	})
	return nil
}

// poll pulls one page of changes and hands it to apply
func (f *ChangeFeed) poll(ctx context.Context, st PollState, apply ApplyFunc) error {
	page, err := f.c.GetDelta(ctx, st.Cursor)
	if err != nil {
		return err
	}
	fs.Debugf(f, "Got %d changes, has_more=%v, reset=%v", len(page.Entries), page.HasMore, page.Reset)
	if apply != nil {
		if err := apply(ctx, page); err != nil {
			return errors.Wrap(err, "failed to apply changes")
		}
	}
	if page.Cursor != "" {
		st.Cursor = page.Cursor
	}
	if page.HasMore {
		st.State = StatePoll
	} else {
		st.State = StateWait
	}
	st.LastOutcome = OutcomePage
	f.setState(st)
	return nil
}

// wait long polls for changes, no sooner than the backoff the server
// asked for after the previous long poll returned
func (f *ChangeFeed) wait(ctx context.Context, st PollState) error {
	if err := f.pacer.Wait(ctx); err != nil {
		return err
	}
	result, err := f.c.WaitForChanges(ctx, st.Cursor, f.timeout)
	if err != nil {
		return err
	}
	backoff := result.BackoffDuration()
	f.pacer.Done(backoff)
	st.Backoff = backoff
	if result.Changes {
		st.State = StatePoll
		st.LastOutcome = OutcomeChanges
	} else {
		st.LastOutcome = OutcomeNoChanges
	}
	f.setState(st)
	return nil
}

// Run steps the feed until ctx is cancelled or a step fails.
func (f *ChangeFeed) Run(ctx context.Context, apply ApplyFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Step(ctx, apply); err != nil {
			return err
		}
	}
}
