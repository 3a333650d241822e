// Package checkout validates and settles an order against the wallet.
//
// The wallet balance cached in the session is debited by the order total
// only after the backend has accepted the order. A validation failure makes
// no network call; a rejected or failed call leaves the balance untouched.
package checkout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/session"
)

// State is the orchestrator's position in a settlement.
type State int

const (
	Idle State = iota
	Validating
	Settling
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Settling:
		return "settling"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes an accepted order.
type Result struct {
	AddressID string `json:"address_id"`
	Charged   int64  `json:"charged"`
	Balance   int64  `json:"balance"`
}

// Validate runs the pre-settlement checks in order and returns the first
// failure: balance, then address presence, then selection.
func Validate(items []model.CartItem, sel model.AddressSelection, balance int64) error {
	if reconcile.TotalValue(items) > balance {
		return model.NewValidationError(model.CodeInsufficientBalance)
	}
	if len(sel.Addresses) == 0 {
		return model.NewValidationError(model.CodeNoAddress)
	}
	if sel.SelectedID == "" {
		return model.NewValidationError(model.CodeNoSelection)
	}
	return nil
}

// Orchestrator runs settlements for one session.
type Orchestrator struct {
	backend backend.Backend
	session *session.Session
	logger  *slog.Logger
	group   singleflight.Group
	newKey  func() string

	mu        sync.Mutex
	state     State
	observers []func(from, to State)
}

// New creates an Orchestrator in the Idle state.
func New(b backend.Backend, sess *session.Session, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		backend: b,
		session: sess,
		logger:  logger,
		newKey:  uuid.NewString,
	}
}

// OnTransition registers fn to be called on every state change.
func (o *Orchestrator) OnTransition(fn func(from, to State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Settle validates and submits the order. Concurrent calls for the same
// session share one settlement and its outcome.
//
// When the backend accepted the order but the new balance could not be
// stored, both a Result and an error are returned.
func (o *Orchestrator) Settle(ctx context.Context, items []model.CartItem, sel model.AddressSelection) (*Result, error) {
	token := o.session.Token()
	if token == "" {
		return nil, model.NewValidationError(model.CodeNotLoggedIn)
	}

	v, err, shared := o.group.Do(token, func() (interface{}, error) {
		return o.settle(ctx, token, items, sel)
	})
	if shared {
		o.logger.Info("checkout joined an in-flight settlement")
	}
	res, _ := v.(*Result)
	return res, err
}

func (o *Orchestrator) settle(ctx context.Context, token string, items []model.CartItem, sel model.AddressSelection) (*Result, error) {
	o.transition(Validating)

	balance, err := o.session.Balance()
	if err != nil {
		o.finish(Failed)
		return nil, model.NewInternalError(err)
	}
	if err := Validate(items, sel, balance); err != nil {
		o.logger.Info("checkout validation failed",
			slog.String("reason", model.ReasonCode(err)),
			slog.Int64("balance", balance))
		o.finish(Failed)
		return nil, err
	}

	total := reconcile.TotalValue(items)
	o.transition(Settling)

	req := &backend.CheckoutRequest{
		AddressID:      sel.SelectedID,
		IdempotencyKey: o.newKey(),
	}
	if err := o.backend.Checkout(ctx, token, req); err != nil {
		o.logger.Warn("checkout failed",
			slog.String("address_id", req.AddressID),
			slog.String("idempotency_key", req.IdempotencyKey),
			slog.String("error", err.Error()))
		o.finish(Failed)
		return nil, err
	}

	res := &Result{AddressID: sel.SelectedID, Charged: total}
	res.Balance, err = o.session.Debit(total)
	o.finish(Succeeded)
	if err != nil {
		o.logger.Error("order placed but balance not recorded",
			slog.Int64("charged", total),
			slog.String("error", err.Error()))
		return res, fmt.Errorf("recording balance after checkout: %w", err)
	}

	o.logger.Info("order placed",
		slog.String("address_id", req.AddressID),
		slog.Int64("charged", total),
		slog.Int64("balance", res.Balance))
	return res, nil
}

// finish moves to a terminal state and back to Idle.
func (o *Orchestrator) finish(terminal State) {
	o.transition(terminal)
	o.transition(Idle)
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	observers := append([]func(from, to State){}, o.observers...)
	o.mu.Unlock()

	for _, fn := range observers {
		fn(from, to)
	}
}
