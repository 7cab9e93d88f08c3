package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"feedback-portal/pkg/metrics"
	"feedback-portal/pkg/utils"

	"go.uber.org/zap"
)

var (
	ErrDailyLimitReached = errors.New("daily email limit reached")
	ErrInvalidAddress    = errors.New("invalid recipient address")
)

// Renderer turns a kind and its data into a message.
type Renderer interface {
	Render(kind Kind, to Recipient, payload Payload) (Message, error)
}

// Outcome describes a finished send.
type Outcome struct {
	Subject  string
	Attempts int
}

// Dispatcher sends rendered emails with fixed delay retries under a daily cap.
type Dispatcher struct {
	renderer   Renderer
	transport  Transport
	counter    Counter
	audit      AuditSink
	maxRetries int
	retryDelay time.Duration
	dailyLimit int
	log        *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	wg sync.WaitGroup
}

func NewDispatcher(renderer Renderer, transport Transport, counter Counter, audit AuditSink, config utils.EmailConfig, log *zap.Logger) *Dispatcher {
	if counter == nil {
		counter = NewMemoryCounter()
	}
	if audit == nil {
		audit = NopAuditSink{}
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Dispatcher{
		renderer:   renderer,
		transport:  transport,
		counter:    counter,
		audit:      audit,
		maxRetries: maxRetries,
		retryDelay: config.RetryDelay,
		dailyLimit: config.DailyLimit,
		log:        log.With(zap.String("component", "dispatcher")),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Send delivers one email and blocks until it succeeds or every attempt is
// used. Invalid addresses and permanent transport errors are not retried.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, to Recipient, payload Payload) (Outcome, error) {
	// 1. Address
	address, err := mail.ParseAddress(strings.TrimSpace(to.Email))
	if err != nil {
		d.finish(ctx, Delivery{Kind: kind, To: to.Email, Result: ResultRejected, Error: err.Error()})
		return Outcome{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, to.Email, err)
	}
	to.Email = address.Address

	// 2. Daily allowance, one unit per logical send
	allowed, err := d.counter.Reserve(ctx, d.dailyLimit, d.now())
	if err != nil {
		d.log.Warn("Daily counter unavailable, sending anyway",
			zap.String("kind", string(kind)), zap.Error(err))
		allowed = true
	}
	if !allowed {
		d.finish(ctx, Delivery{Kind: kind, To: to.Email, Result: ResultLimited})
		return Outcome{}, ErrDailyLimitReached
	}

	// 3. Render
	msg, err := d.renderer.Render(kind, to, payload)
	if err != nil {
		d.finish(ctx, Delivery{Kind: kind, To: to.Email, Result: ResultRejected, Error: err.Error()})
		return Outcome{}, err
	}

	// 4. Attempts
	outcome := Outcome{Subject: msg.Subject}
	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		outcome.Attempts = attempt
		metrics.MailAttempts.WithLabelValues(string(kind)).Inc()

		lastErr = d.transport.Send(ctx, msg)
		if lastErr == nil {
			d.finish(ctx, Delivery{Kind: kind, To: msg.To, Subject: msg.Subject, Result: ResultSent, Attempts: attempt})
			return outcome, nil
		}

		if IsPermanent(lastErr) {
			d.log.Warn("Email rejected permanently",
				zap.String("kind", string(kind)),
				zap.String("to", msg.To),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			break
		}

		if attempt < d.maxRetries {
			d.log.Warn("Email send attempt failed, retrying",
				zap.String("kind", string(kind)),
				zap.String("to", msg.To),
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", d.retryDelay),
				zap.Error(lastErr))
			if err := d.sleep(ctx, d.retryDelay); err != nil {
				lastErr = err
				break
			}
		}
	}

	d.finish(ctx, Delivery{
		Kind:     kind,
		To:       msg.To,
		Subject:  msg.Subject,
		Result:   ResultFailed,
		Attempts: outcome.Attempts,
		Error:    lastErr.Error(),
	})
	return outcome, fmt.Errorf("send %s email after %d attempt(s): %w", kind, outcome.Attempts, lastErr)
}

func (d *Dispatcher) finish(ctx context.Context, delivery Delivery) {
	delivery.At = d.now().UTC()
	metrics.MailSends.WithLabelValues(string(delivery.Kind), delivery.Result).Inc()

	if err := d.audit.Record(context.WithoutCancel(ctx), delivery); err != nil {
		d.log.Warn("Failed to record email delivery", zap.String("kind", string(delivery.Kind)), zap.Error(err))
	}
}

// Notify sends in the background. Failures are logged and never reach the
// caller, and the send is not tied to any request context.
func (d *Dispatcher) Notify(kind Kind, to Recipient, payload Payload) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		outcome, err := d.Send(context.Background(), kind, to, payload)
		if err != nil {
			d.log.Error("Failed to send email",
				zap.String("kind", string(kind)),
				zap.String("to", to.Email),
				zap.Int("attempts", outcome.Attempts),
				zap.Error(err))
			return
		}
		d.log.Info("Email sent",
			zap.String("kind", string(kind)),
			zap.String("to", to.Email),
			zap.Int("attempts", outcome.Attempts))
	}()
}

// Wait blocks until background sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
