// ABOUTME: Device-code flow state machine coordinating polling with session login
// ABOUTME: Owns a cancellable poll loop; one attempt active at a time

package deviceauth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrExpired is returned after the server declares the device code
// expired. The flow must be restarted to log in.
var ErrExpired = errors.New("device code expired")

// DefaultPollInterval is the cadence of approval polls. Device-flow
// intervals are long relative to network latency, so no backoff is
// applied; the server rate-governs excess requests.
const DefaultPollInterval = 2 * time.Second

// State of a device-flow attempt. Approved and Expired are terminal
// for the attempt; a new Start re-enters at Idle.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingApproval State = "awaiting_approval"
	StateApproved         State = "approved"
	StateExpired          State = "expired"
)

// PollClient issues the device-flow network requests.
type PollClient interface {
	Init(ctx context.Context) (*InitResponse, error)
	Poll(ctx context.Context, deviceCode string) (*PollResponse, error)
}

// LoginSink receives the approved credentials. Implemented by
// session.Manager.
type LoginSink interface {
	Login(ctx context.Context, token, username, avatarURL string) error
}

// BrowserOpener hands the verification URL to the user's browser.
// Best-effort; a failure never aborts the flow.
type BrowserOpener func(url string) error

// Flow orchestrates one device-code login attempt: request a code,
// open the verification URL, poll until a terminal status, and report
// approval to the LoginSink.
//
// Polls run sequentially inside the ticker loop, so a slow poll delays
// the next tick rather than overlapping it (missed ticks are dropped).
// Terminal transitions are serialized under the flow mutex and
// re-check cancellation, so a response in flight when the attempt is
// cancelled never reaches the LoginSink.
type Flow struct {
	client   PollClient
	sessions LoginSink
	openURL  BrowserOpener
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFlow creates a device-auth flow. A zero interval selects
// DefaultPollInterval. openURL may be nil.
func NewFlow(client PollClient, sessions LoginSink, openURL BrowserOpener, interval time.Duration) *Flow {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Flow{
		client:   client,
		sessions: sessions,
		openURL:  openURL,
		interval: interval,
		logger:   slog.Default().With("component", "deviceauth"),
		state:    StateIdle,
	}
}

// Start begins a new login attempt, cancelling any attempt still in
// progress first. It issues the device-code request, transitions to
// AwaitingApproval, hands the verification URL to the browser opener,
// and launches the poll loop. On a failed code request the state
// remains Idle and ErrServerUnreachable is returned.
func (f *Flow) Start(ctx context.Context) (*InitResponse, error) {
	f.Cancel()

	res, err := f.client.Init(ctx)
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	f.mu.Lock()
	f.state = StateAwaitingApproval
	f.err = nil
	f.cancel = cancel
	f.done = done
	f.mu.Unlock()

	if f.openURL != nil {
		// Fire-and-forget: the user may also open the URL manually.
		go func(url string) {
			if err := f.openURL(url); err != nil {
				f.logger.Warn("could not open browser", "error", err)
			}
		}(res.VerificationURL)
	}

	go f.poll(attemptCtx, res.DeviceCode, done)

	f.logger.Info("device flow started", "verification_url", res.VerificationURL)
	return res, nil
}

// Cancel stops the active attempt, if any, and waits for its poll loop
// to wind down. Safe to call at any time, including repeatedly.
func (f *Flow) Cancel() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Done returns a channel closed when the current attempt finishes,
// whether by terminal status or cancellation. Returns nil before the
// first Start.
func (f *Flow) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the terminal error of the last attempt: ErrExpired after
// an expiry, or the login persistence error if approval could not be
// committed. Nil while pending or after success.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// poll is the attempt's background loop. It issues one poll per tick
// until a terminal status is observed or ctx is cancelled. Transient
// poll failures are swallowed and retried on the next tick: one failed
// poll must not abort an otherwise-valid in-progress flow.
func (f *Flow) poll(ctx context.Context, deviceCode string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.abandon()
			return
		case <-ticker.C:
			res, err := f.client.Poll(ctx, deviceCode)
			if err != nil {
				if ctx.Err() != nil {
					f.abandon()
					return
				}
				f.logger.Debug("poll failed, retrying next tick", "error", err)
				continue
			}

			switch res.Status {
			case StatusApproved:
				f.finishApproved(ctx, res)
				return
			case StatusExpired:
				f.finishExpired(ctx)
				return
			case StatusPending:
				// Remain in AwaitingApproval.
			default:
				f.logger.Debug("unknown poll status, treating as pending", "status", res.Status)
			}
		}
	}
}

// abandon resets a cancelled attempt back to Idle without touching the
// session.
func (f *Flow) abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateAwaitingApproval {
		f.state = StateIdle
	}
}

// finishApproved commits an approval: exactly one Login call, then the
// terminal Approved state. Runs under the flow mutex so it serializes
// against Cancel; if the attempt was already cancelled the result is
// discarded. A failed Login records the error and returns the flow to
// Idle so no partial login is observable.
func (f *Flow) finishApproved(ctx context.Context, res *PollResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		f.state = StateIdle
		return
	}

	// The approval has been observed; the commit itself must not be
	// torn apart by a racing cancellation.
	if err := f.sessions.Login(context.WithoutCancel(ctx), res.Token, res.Username, res.AvatarURL); err != nil {
		f.logger.Error("approval could not be persisted", "error", err)
		f.err = err
		f.state = StateIdle
		return
	}

	f.state = StateApproved
	f.logger.Info("device flow approved", "username", res.Username)
}

// finishExpired records the server-declared expiry.
func (f *Flow) finishExpired(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		f.state = StateIdle
		return
	}

	f.state = StateExpired
	f.err = ErrExpired
	f.logger.Info("device flow expired")
}
