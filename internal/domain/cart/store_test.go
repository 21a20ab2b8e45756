package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterpiece-shawarma/storefront/internal/domain/promo"
)

func newTestStore() *Store {
	return NewStore(promo.MustEngine(promo.DefaultCodes), d("500"), time.Hour)
}

func TestStore_AddAndTotals(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("sess", shawarma)
	require.NoError(t, err)
	_, err = s.Add("sess", shawarma)
	require.NoError(t, err)
	snap, err := s.Add("sess", chips)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Units)
	require.Len(t, snap.Lines, 2)
	assert.True(t, d("3400").Equal(snap.Totals.Total))
}

func TestStore_EmptySessionID(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("", shawarma)
	require.ErrorIs(t, err, ErrEmptySession)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("a", shawarma)
	require.NoError(t, err)

	snap, err := s.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Units)
	assert.True(t, decimal.Zero.Equal(snap.Totals.DeliveryFee))
}

func TestStore_ApplyPromo(t *testing.T) {
	s := newTestStore()
	_, err := s.Add("sess", Entry{ItemID: "x", UnitPrice: d("2000")})
	require.NoError(t, err)

	snap, err := s.ApplyPromo("sess", "friyay")
	require.NoError(t, err)
	assert.Equal(t, "FRIYAY", snap.PromoCode)
	assert.True(t, d("400").Equal(snap.Totals.Discount))
	assert.True(t, d("2100").Equal(snap.Totals.Total))

	// Reapplying is idempotent.
	snap, err = s.ApplyPromo("sess", "FRIYAY")
	require.NoError(t, err)
	assert.True(t, d("0.20").Equal(snap.Totals.DiscountRate))

	// Invalid code keeps the previous promo.
	snap, err = s.ApplyPromo("sess", "BOGUS")
	require.ErrorIs(t, err, promo.ErrInvalidPromoCode)
	assert.Equal(t, "FRIYAY", snap.PromoCode)
	assert.True(t, d("400").Equal(snap.Totals.Discount))

	// A new valid code replaces the active one.
	snap, err = s.ApplyPromo("sess", "LOYALTY")
	require.NoError(t, err)
	assert.Equal(t, "LOYALTY", snap.PromoCode)
	assert.True(t, d("500").Equal(snap.Totals.Discount))
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := newTestStore()
	for _, e := range []Entry{shawarma, chips, shawarma} {
		_, err := s.Add("sess", e)
		require.NoError(t, err)
	}
	_, err := s.ApplyPromo("sess", "WELCOME10")
	require.NoError(t, err)

	snap, err := s.RemoveOne("sess", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Units)

	snap, err = s.RemoveAll("sess", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Units)

	snap, err = s.Clear("sess")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Units)
	assert.Empty(t, snap.PromoCode)
	assert.True(t, decimal.Zero.Equal(snap.Totals.Total))
}

func TestStore_Sweep(t *testing.T) {
	s := newTestStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Add("old", shawarma)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = s.Add("fresh", chips)
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	snap, err := s.Get("old")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Units, "expired session starts empty")

	snap, err = s.Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Units)
}
