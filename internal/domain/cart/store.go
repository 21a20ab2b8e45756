package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/masterpiece-shawarma/storefront/internal/domain/promo"
)

// ErrEmptySession is returned when a session ID is blank.
var ErrEmptySession = errors.New("session id required")

// Snapshot is a read-only view of a session's cart.
type Snapshot struct {
	SessionID string
	Units     int
	Lines     []LineItem
	PromoCode string
	Totals    Totals
}

type session struct {
	cart      Cart
	promoCode string
	promoRate decimal.Decimal
	touched   time.Time
}

// Store holds one cart per shopper session. All mutations go through the
// store's mutex; snapshots are copies and safe to use after the call.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*session
	promos      *promo.Engine
	deliveryFee decimal.Decimal
	ttl         time.Duration
	now         func() time.Time
}

// NewStore creates a Store. deliveryFee is the flat fee added to non-empty
// carts; idle sessions older than ttl are dropped by Sweep.
func NewStore(promos *promo.Engine, deliveryFee decimal.Decimal, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*session),
		promos:      promos,
		deliveryFee: deliveryFee,
		ttl:         ttl,
		now:         time.Now,
	}
}

// DeliveryFee returns the configured flat delivery fee.
func (s *Store) DeliveryFee() decimal.Decimal {
	return s.deliveryFee
}

// get returns the session, creating it when absent. Caller holds s.mu.
func (s *Store) get(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.touched = s.now()
	return sess
}

func (s *Store) snapshot(id string, sess *session) Snapshot {
	return Snapshot{
		SessionID: id,
		Units:     sess.cart.Len(),
		Lines:     sess.cart.Lines(),
		PromoCode: sess.promoCode,
		Totals:    sess.cart.Totals(sess.promoRate, s.deliveryFee),
	}
}

func (s *Store) update(id string, fn func(sess *session) error) (Snapshot, error) {
	if id == "" {
		return Snapshot{}, ErrEmptySession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	if err := fn(sess); err != nil {
		return s.snapshot(id, sess), err
	}
	return s.snapshot(id, sess), nil
}

// Get returns the current cart for the session.
func (s *Store) Get(id string) (Snapshot, error) {
	return s.update(id, func(*session) error { return nil })
}

// Add appends one unit of the entry to the session cart.
func (s *Store) Add(id string, e Entry) (Snapshot, error) {
	return s.update(id, func(sess *session) error {
		sess.cart.Add(e)
		return nil
	})
}

// RemoveOne removes a single unit of the item.
func (s *Store) RemoveOne(id, itemID string) (Snapshot, error) {
	return s.update(id, func(sess *session) error {
		sess.cart.RemoveOne(itemID)
		return nil
	})
}

// RemoveAll removes every unit of the item.
func (s *Store) RemoveAll(id, itemID string) (Snapshot, error) {
	return s.update(id, func(sess *session) error {
		sess.cart.RemoveAll(itemID)
		return nil
	})
}

// Clear empties the session cart and drops the active promo.
func (s *Store) Clear(id string) (Snapshot, error) {
	return s.update(id, func(sess *session) error {
		sess.cart.Clear()
		sess.promoCode = ""
		sess.promoRate = decimal.Zero
		return nil
	})
}

// ApplyPromo makes code the session's single active promo. An invalid code
// returns promo.ErrInvalidPromoCode and leaves the previous promo in place.
func (s *Store) ApplyPromo(id, code string) (Snapshot, error) {
	return s.update(id, func(sess *session) error {
		p, err := s.promos.Apply(code)
		if err != nil {
			return err
		}
		sess.promoCode = p.Code
		sess.promoRate = p.Rate
		return nil
	})
}

// Sweep drops sessions idle for longer than the store TTL and returns how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
