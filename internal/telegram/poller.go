package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultPollTimeout = 60 * time.Second
	DefaultRetryDelay  = 1 * time.Second
	DefaultEventBuffer = 100

	// pollGrace is added to the server-side hold to get the client-side deadline.
	pollGrace = 10 * time.Second
)

// AllowedUpdates are the update kinds Classify understands.
var AllowedUpdates = []string{"message", "inline_query", "chosen_inline_result", "callback_query"}

type PollerConfig struct {
	Timeout    time.Duration // Server-side long-poll hold
	RetryDelay time.Duration // Fixed delay after a failed poll
	Buffer     int           // Event channel capacity
}

// Poller owns the update cursor and feeds classified events to a single consumer.
// It embeds the Client so the consumer can send replies through it.
//
// The cursor is only touched by the polling goroutine once Start has been called.
type Poller struct {
	*Client

	timeout time.Duration
	retry   backoff.BackOff
	buffer  int
	offset  int64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewPoller(client *Client, cfg PollerConfig) *Poller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultEventBuffer
	}

	return &Poller{
		Client:  client,
		timeout: cfg.Timeout,
		retry:   backoff.NewConstantBackOff(cfg.RetryDelay),
		buffer:  cfg.Buffer,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns the event channel. The channel is
// closed once the loop exits, which happens after Stop is called or ctx is cancelled.
// An in-flight long poll is allowed to finish before the loop notices.
func (p *Poller) Start(ctx context.Context) <-chan Event {
	events := make(chan Event, p.buffer)
	go p.run(ctx, events)
	return events
}

// Stop requests shutdown. Safe to call more than once and from any goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Done is closed after the polling goroutine has exited and closed the event channel.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Offset is the next update id that will be requested. Only read it when the
// loop is not running.
func (p *Poller) Offset() int64 {
	return p.offset
}

func (p *Poller) run(ctx context.Context, events chan<- Event) {
	defer close(p.done)
	defer close(events)

	slog.Info("poller started", "offset", p.offset, "timeout", p.timeout)

	for !p.stopping(ctx) {
		batch, err := p.PollOnce(ctx)
		if err != nil {
			delay := p.retry.NextBackOff()
			slog.Warn("poll failed, retrying", "error", err, "offset", p.offset, "retry_in", delay)
			if !p.wait(ctx, delay) {
				break
			}
			continue
		}
		p.retry.Reset()

		for i, ev := range batch {
			select {
			case events <- ev:
			case <-p.stop:
				slog.Warn("poller stopping with undelivered events", "dropped", len(batch)-i)
				return
			case <-ctx.Done():
				slog.Warn("poller stopping with undelivered events", "dropped", len(batch)-i)
				return
			}
		}
	}

	slog.Info("poller stopped", "offset", p.offset)
}

// PollOnce fetches one batch and returns its classified events in delivery order.
// On success the cursor moves past every update in the batch, including ones that
// classify to nothing. On failure the cursor is left untouched.
func (p *Poller) PollOnce(ctx context.Context) ([]Event, error) {
	// Detached from ctx so shutdown never aborts a request mid-flight
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout+pollGrace)
	defer cancel()

	updates, err := p.GetUpdates(reqCtx, p.offset, p.timeout, AllowedUpdates)
	if err != nil {
		return nil, err
	}

	next := p.offset
	events := make([]Event, 0, len(updates))
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
		ev := Classify(u)
		if ev == nil {
			slog.Debug("ignoring update", "update_id", u.UpdateID)
			continue
		}
		events = append(events, ev)
	}
	p.offset = next

	if len(updates) > 0 {
		slog.Debug("poll batch", "updates", len(updates), "events", len(events), "next_offset", next)
	}
	return events, nil
}

func (p *Poller) stopping(ctx context.Context) bool {
	select {
	case <-p.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// wait sleeps for d, returning false if shutdown was requested meanwhile.
func (p *Poller) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !p.stopping(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	}
}
