// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/internal/session"
	"github.com/taibuivan/shopie/pkg/slice"
)

// Requester sends calls with the session's credential.
//
// It is satisfied by [*session.Manager].
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
}

// # Synchronizer

// Synchronizer is the process-wide owner of the cart view.
//
// # Concurrency
//
// mu guards marker issuance and commits only; it is never held across a
// backend call. Mutations of one product or line run one at a time under
// locks, held from reading the local quantity until the answer is committed.
// Mutations on different lines may race on the network, and whichever
// response carries the latest marker wins.
type Synchronizer struct {
	requester Requester
	logger    *slog.Logger
	locks     lineLocks

	mu sync.Mutex
	// items is replaced whole on commit and never modified in place.
	items    []Line
	issued   uint64
	synced   uint64
	inflight int
	ownerID  int64
	// generation changes with the session owner.
	generation uint64
}

// NewSynchronizer constructs an empty [Synchronizer].
func NewSynchronizer(requester Requester, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		requester: requester,
		logger:    logger,
		items:     []Line{},
	}
}

// # Session Coupling

// HandleSession discards the cart when the session ends or changes owner.
//
// Register it with [session.Manager.OnChange]. The marker advances so any
// in-flight response belonging to the previous session is dropped.
func (synchronizer *Synchronizer) HandleSession(current session.Session) {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()

	var owner int64
	if current.Authenticated() {
		owner = current.User.ID
	}
	if owner == synchronizer.ownerID && owner != 0 {
		return
	}

	synchronizer.ownerID = owner
	synchronizer.generation++
	synchronizer.issued++
	synchronizer.synced = synchronizer.issued
	synchronizer.items = []Line{}
}

// # Marker Discipline

// ticket identifies one request against the cart.
type ticket struct {
	marker     uint64
	generation uint64
}

// outcome is what became of a successful answer.
type outcome int

const (
	committed outcome = iota
	// superseded answers lost to a request issued after them.
	superseded
	// orphaned answers belong to a session that has since ended.
	orphaned
)

// begin issues a new staleness marker.
func (synchronizer *Synchronizer) begin() ticket {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()

	synchronizer.issued++
	synchronizer.inflight++
	return ticket{marker: synchronizer.issued, generation: synchronizer.generation}
}

// abandon ends a request that produced no cart.
func (synchronizer *Synchronizer) abandon(ticket) {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()

	synchronizer.inflight--
}

// commit ends a request with its answer. Items are applied only if the
// ticket's marker is still the latest issued.
func (synchronizer *Synchronizer) commit(t ticket, items []Line) outcome {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()

	synchronizer.inflight--
	if t.generation != synchronizer.generation {
		return orphaned
	}
	if t.marker != synchronizer.issued {
		return superseded
	}

	synchronizer.items = items
	synchronizer.synced = t.marker
	return committed
}

// # Loading

/*
Load fetches the authoritative cart and replaces the local lines.

Description: The answer is discarded silently if a later load or mutation was
issued while it was in flight.

Returns:
  - error: NOT_AUTHENTICATED, AUTH_ERROR, NETWORK_ERROR or SERVER_ERROR; the
    local lines are unchanged on error
*/
func (synchronizer *Synchronizer) Load(ctx context.Context) error {
	t := synchronizer.begin()

	payload, err := synchronizer.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathCart,
	})
	if err != nil {
		synchronizer.abandon(t)
		synchronizer.logger.WarnContext(ctx, "cart_load_failed", slog.String("reason", apperr.Reason(err)))
		return err
	}

	items, err := decodeLines(payload)
	if errors.Is(err, errNotACart) {
		err = apperr.Network(err)
	}
	if err != nil {
		synchronizer.abandon(t)
		return err
	}

	if synchronizer.commit(t, items) != committed {
		synchronizer.logger.DebugContext(ctx, "cart_response_discarded", slog.Uint64("marker", t.marker))
	}
	return nil
}

// Refresh is the explicit reload the UI calls on navigation events.
func (synchronizer *Synchronizer) Refresh(ctx context.Context) error {
	return synchronizer.Load(ctx)
}

// # Mutations

/*
AddToCart adds quantity units of a product.

Description: When the product already has a line, the call becomes an update
of that line to its current quantity plus quantity. A create is never sent for
a product that is present locally. Adds of one product run one at a time, so
each reads the quantity the previous one committed.

Parameters:
  - productID: int64 (positive)
  - quantity: int (at least 1)
*/
func (synchronizer *Synchronizer) AddToCart(ctx context.Context, productID int64, quantity int) error {
	err := (&validate.Validator{}).
		Custom("productId", productID <= 0, "must be a positive integer").
		Min("quantity", quantity, 1).
		Err()
	if err != nil {
		return err
	}

	unlockProduct := synchronizer.locks.lock(productKey(productID))
	defer unlockProduct()

	line, ok := synchronizer.IsProductInCart(productID)
	if ok {
		unlockLine := synchronizer.locks.lock(lineKey(line.ID))
		defer unlockLine()

		// An update of the line may have committed while we waited.
		line, ok = synchronizer.IsProductInCart(productID)
	}
	if ok {
		return synchronizer.updateLine(ctx, line.ID, line.Quantity+quantity)
	}

	return synchronizer.mutate(ctx, "add", backend.Request{
		Method: http.MethodPost,
		Path:   pathItems,
		Body:   createLineBody{ProductID: productID, Quantity: quantity},
	}, false)
}

// UpdateCartItem sets a line's quantity. A quantity of zero or less removes the line.
func (synchronizer *Synchronizer) UpdateCartItem(ctx context.Context, lineID int64, quantity int) error {
	if quantity <= 0 {
		return synchronizer.RemoveFromCart(ctx, lineID)
	}

	unlock := synchronizer.locks.lock(lineKey(lineID))
	defer unlock()

	return synchronizer.updateLine(ctx, lineID, quantity)
}

// RemoveFromCart removes a single line.
func (synchronizer *Synchronizer) RemoveFromCart(ctx context.Context, lineID int64) error {
	unlock := synchronizer.locks.lock(lineKey(lineID))
	defer unlock()

	return synchronizer.removeLine(ctx, lineID)
}

// RemoveProductFromCart removes the line holding productID.
//
// It fails with NOT_FOUND, without a network call, when no local line holds it.
func (synchronizer *Synchronizer) RemoveProductFromCart(ctx context.Context, productID int64) error {
	unlockProduct := synchronizer.locks.lock(productKey(productID))
	defer unlockProduct()

	line, ok := synchronizer.IsProductInCart(productID)
	if !ok {
		return apperr.NotFound("Cart line")
	}

	unlockLine := synchronizer.locks.lock(lineKey(line.ID))
	defer unlockLine()

	return synchronizer.removeLine(ctx, line.ID)
}

// ClearCart empties the cart with a single backend call.
func (synchronizer *Synchronizer) ClearCart(ctx context.Context) error {
	return synchronizer.mutate(ctx, "clear", backend.Request{
		Method: http.MethodDelete,
		Path:   pathCart,
	}, true)
}

// updateLine and removeLine expect the caller to hold the line's lock.

func (synchronizer *Synchronizer) updateLine(ctx context.Context, lineID int64, quantity int) error {
	return synchronizer.mutate(ctx, "update", backend.Request{
		Method: http.MethodPut,
		Path:   itemPath(lineID),
		Body:   quantityBody{Quantity: quantity},
	}, false)
}

func (synchronizer *Synchronizer) removeLine(ctx context.Context, lineID int64) error {
	return synchronizer.mutate(ctx, "remove", backend.Request{
		Method: http.MethodDelete,
		Path:   itemPath(lineID),
	}, false)
}

/*
mutate sends one mutation and commits the cart it answers with.

Description: The cart is loaded again when the answer carries no cart (an
empty body, or an object such as the created line) and when a later request
took the marker before this answer arrived. Either way the mutation was
accepted and the local lines must catch up with it. Clearing is the exception
to the first case: an empty answer there confirms an empty cart.
*/
func (synchronizer *Synchronizer) mutate(ctx context.Context, operation string, req backend.Request, clearing bool) error {
	t := synchronizer.begin()

	payload, err := synchronizer.requester.AuthenticatedRequest(ctx, req)
	if err != nil {
		synchronizer.abandon(t)
		synchronizer.logger.WarnContext(ctx, "cart_mutation_failed",
			slog.String("operation", operation),
			slog.String("reason", apperr.Reason(err)),
		)
		return err
	}

	var reload bool
	switch items, err := decodeLines(payload); {
	case payload == nil && clearing:
		reload = synchronizer.settle(ctx, t, []Line{})
	case payload == nil, errors.Is(err, errNotACart):
		synchronizer.abandon(t)
		reload = true
	case err != nil:
		synchronizer.abandon(t)
		return err
	default:
		reload = synchronizer.settle(ctx, t, items)
	}

	if !reload {
		return nil
	}
	if err := synchronizer.Load(ctx); err != nil {
		// The mutation itself was accepted; the next refresh will show it.
		synchronizer.logger.WarnContext(ctx, "cart_refresh_after_mutation_failed",
			slog.String("operation", operation),
			slog.String("reason", apperr.Reason(err)),
		)
	}
	return nil
}

// settle commits a mutation's answer and reports whether the cart must be
// loaded again because a later request took the marker.
func (synchronizer *Synchronizer) settle(ctx context.Context, t ticket, items []Line) bool {
	switch synchronizer.commit(t, items) {
	case superseded:
		return true
	case orphaned:
		synchronizer.logger.DebugContext(ctx, "cart_response_discarded", slog.Uint64("marker", t.marker))
	}
	return false
}

// # Queries

// IsProductInCart returns the line holding productID.
func (synchronizer *Synchronizer) IsProductInCart(productID int64) (Line, bool) {
	return slice.Find(synchronizer.lines(), func(line Line) bool {
		return line.Product.ID == productID
	})
}

// ProductQuantity returns the quantity of productID in the cart, 0 if absent.
func (synchronizer *Synchronizer) ProductQuantity(productID int64) int {
	line, ok := synchronizer.IsProductInCart(productID)
	if !ok {
		return 0
	}
	return line.Quantity
}

// ItemsCount returns the number of distinct lines.
func (synchronizer *Synchronizer) ItemsCount() int {
	return len(synchronizer.lines())
}

// Total sums price times quantity over the current lines.
//
// It is for display only and is never sent to the backend.
func (synchronizer *Synchronizer) Total() float64 {
	return total(synchronizer.lines())
}

// Snapshot returns a copy of the committed state.
func (synchronizer *Synchronizer) Snapshot() State {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()

	return State{
		Items:        append([]Line{}, synchronizer.items...),
		Loading:      synchronizer.inflight > 0,
		LastSyncedAt: synchronizer.synced,
	}
}

// lines returns the committed slice. Callers must not modify it.
func (synchronizer *Synchronizer) lines() []Line {
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()
	return synchronizer.items
}
