package sheets

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/logging"
)

const handshakeKey = "handshake"

// Authorizer performs the one-time handshake. *google.Credential
// implements it.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// identified is implemented by authorizers that know their identity.
type identified interface {
	Identity() string
}

// AuthorizationState is the gate's tagged state.
type AuthorizationState int

const (
	StateUnauthenticated AuthorizationState = iota
	StateInFlight
	StateAuthorized
)

func (s AuthorizationState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateInFlight:
		return "in_flight"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Gate runs operations behind a single, shared authorization handshake.
// Once authorized it adds nothing but an atomic load to each call.
type Gate struct {
	authorizer Authorizer
	identity   string
	logger     logging.Logger
	metrics    *instrumentation.Metrics

	authorized atomic.Bool
	inFlight   atomic.Bool
	group      singleflight.Group
}

// NewGate returns an unauthenticated gate. logger and metrics may be nil.
func NewGate(authorizer Authorizer, logger logging.Logger, metrics *instrumentation.Metrics) *Gate {
	if logger == nil {
		logger = logging.Discard()
	}
	g := &Gate{
		authorizer: authorizer,
		logger:     logger,
		metrics:    metrics,
	}
	if id, ok := authorizer.(identified); ok {
		g.identity = id.Identity()
	}
	return g
}

// State reports the current authorization state.
func (g *Gate) State() AuthorizationState {
	switch {
	case g.authorized.Load():
		return StateAuthorized
	case g.inFlight.Load():
		return StateInFlight
	default:
		return StateUnauthenticated
	}
}

// Do runs op once the handshake has completed.
func (g *Gate) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if err := g.ensure(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// withAuthorization is Do for operations that return a value.
func withAuthorization[T any](ctx context.Context, g *Gate, op func(ctx context.Context) (T, error)) (T, error) {
	if err := g.ensure(ctx); err != nil {
		var zero T
		return zero, err
	}
	return op(ctx)
}

// ensure joins or starts the handshake. Waiters give up when their own ctx
// ends. The handshake itself runs with the leader's ctx, so a waiter whose
// leader was cancelled starts a fresh attempt.
func (g *Gate) ensure(ctx context.Context) error {
	for {
		if g.authorized.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		led := false
		ch := g.group.DoChan(handshakeKey, func() (interface{}, error) {
			if g.authorized.Load() {
				return nil, nil
			}
			led = true
			g.inFlight.Store(true)
			defer g.inFlight.Store(false)
			return nil, g.handshake(ctx)
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !led && isContextError(res.Err) {
				continue
			}
			return &AuthorizationError{Err: res.Err}
		}
	}
}

func (g *Gate) handshake(ctx context.Context) error {
	ctx, span := instrumentation.StartSpan(ctx, "sheets.authorize")
	defer span.End()

	g.logger.Debug("starting authorization handshake")
	start := time.Now()
	err := g.authorizer.Authorize(ctx)
	duration := time.Since(start)

	if err != nil {
		g.metrics.RecordAuthorizationHandshake(ctx, instrumentation.HandshakeFailure, g.identity, duration)
		instrumentation.SetSpanError(span, err)
		g.logger.Warn("authorization handshake failed",
			logging.Err(err),
			"duration", duration)
		return err
	}

	g.authorized.Store(true)
	g.metrics.RecordAuthorizationHandshake(ctx, instrumentation.HandshakeSuccess, g.identity, duration)
	instrumentation.SetSpanSuccess(span)
	g.logger.Info("authorization handshake completed", "duration", duration)
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
