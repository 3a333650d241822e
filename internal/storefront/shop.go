// Package storefront wires the catalog, cart, address book and checkout
// around one session and joins their results into the view a shopper sees.
package storefront

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/address"
	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/session"
)

// Options configures a Shop.
type Options struct {
	// SearchQuiet is the debounce quiet period for TypeSearch.
	SearchQuiet time.Duration
	// OnSearch receives every non-stale debounced search result.
	OnSearch func(catalog.SearchResult)
}

// Shop is one shopper's storefront.
type Shop struct {
	Catalog   *catalog.Client
	Cart      *cart.Store
	Addresses *address.Book
	Checkout  *checkout.Orchestrator
	Session   *session.Session

	backend   backend.Backend
	logger    *slog.Logger
	debouncer *catalog.Debouncer
	onSearch  func(catalog.SearchResult)
}

// New builds a Shop over b and sess.
func New(b backend.Backend, sess *session.Session, logger *slog.Logger, opts Options) *Shop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sess == nil {
		sess = session.New(nil)
	}
	s := &Shop{
		Catalog:   catalog.New(b, logger.With(slog.String("component", "catalog"))),
		Cart:      cart.New(b, sess, logger.With(slog.String("component", "cart"))),
		Addresses: address.New(b, sess, logger.With(slog.String("component", "address"))),
		Checkout:  checkout.New(b, sess, logger.With(slog.String("component", "checkout"))),
		Session:   sess,
		backend:   b,
		logger:    logger,
		onSearch:  opts.OnSearch,
	}
	s.debouncer = catalog.NewDebouncer(opts.SearchQuiet, s.runSearch, logger)
	return s
}

// View is the enriched cart with everything checkout needs.
type View struct {
	Username  string                 `json:"username,omitempty"`
	Balance   int64                  `json:"balance"`
	Items     []model.CartItem       `json:"items"`
	Missing   []string               `json:"missing,omitempty"`
	Summary   reconcile.Summary      `json:"summary"`
	Addresses model.AddressSelection `json:"addresses"`
}

// Enter loads the page: catalog and cart are fetched concurrently and both
// must resolve before the cart is enriched; addresses follow.
//
// The view is always returned. On failure it is built from whatever
// snapshots survived and err reports what could not be fetched.
func (s *Shop) Enter(ctx context.Context) (*View, error) {
	// A zero Group: one failed fetch must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Catalog.List(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Cart.Load(ctx)
		return err
	})
	joinErr := g.Wait()

	_, addrErr := s.Addresses.Load(ctx)

	return s.CartView(), errors.Join(joinErr, addrErr)
}

// CartView recomputes the view from the current snapshots without fetching.
func (s *Shop) CartView() *View {
	merged := s.Cart.View(s.Catalog.Catalog())
	balance, err := s.Session.Balance()
	if err != nil {
		s.logger.Warn("unreadable session balance", slog.String("error", err.Error()))
	}
	return &View{
		Username:  s.Session.Username(),
		Balance:   balance,
		Items:     merged.Items,
		Missing:   merged.Missing,
		Summary:   reconcile.Summarize(merged.Items),
		Addresses: s.Addresses.Selection(),
	}
}

// PlaceOrder settles the current cart. A non-empty addressID ships to that
// address for this order only; the book's selection changes only once the
// order succeeds. The cart is refetched afterwards since the backend empties
// it on success.
//
// Cart lines without a catalog match trigger one catalog refetch. Lines
// still unmatched after it fail with CART_INCOMPLETE and nothing is settled.
func (s *Shop) PlaceOrder(ctx context.Context, addressID string) (*checkout.Result, error) {
	sel := s.Addresses.Selection()
	if addressID != "" {
		if !sel.Has(addressID) {
			return nil, model.NewBadRequestError("unknown address id " + strconv.Quote(addressID))
		}
		sel.SelectedID = addressID
	}

	products := s.Catalog.Catalog()
	fetched := false
	if len(products) == 0 && len(s.Cart.Lines()) > 0 {
		var err error
		if products, err = s.Catalog.List(ctx); err != nil {
			return nil, err
		}
		fetched = true
	}

	merged := s.Cart.View(products)
	if !merged.Complete() && !fetched {
		var err error
		if products, err = s.Catalog.List(ctx); err != nil {
			return nil, err
		}
		merged = s.Cart.View(products)
	}
	if !merged.Complete() {
		s.logger.Warn("cart has products missing from the catalog",
			slog.Any("missing", merged.Missing))
		return nil, model.NewValidationError(model.CodeCartIncomplete)
	}

	res, err := s.Checkout.Settle(ctx, merged.Items, sel)
	if res == nil {
		return nil, err
	}
	if addressID != "" {
		s.Addresses.Select(addressID)
	}

	if _, loadErr := s.Cart.Load(ctx); loadErr != nil {
		s.logger.Warn("cart refresh after checkout failed", slog.String("error", loadErr.Error()))
	}
	return res, err
}

// TypeSearch feeds one keystroke's worth of search text to the debouncer.
func (s *Shop) TypeSearch(text string) {
	s.debouncer.Input(text)
}

// Close drops any pending debounced search.
func (s *Shop) Close() {
	s.debouncer.Cancel()
}

func (s *Shop) runSearch(text string) {
	res := s.Catalog.Search(context.Background(), text)
	if res.Stale || s.onSearch == nil {
		return
	}
	s.onSearch(res)
}
