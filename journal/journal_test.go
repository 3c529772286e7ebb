package journal

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/product"
	"github.com/meenmo/trsreset/sim"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func paymentResult(kind product.EventKind, date time.Time, amount float64) sim.Result {
	return sim.Result{
		Date: date,
		Kind: kind,
		Output: product.Output{
			Payments: []product.Payment{{
				Date:     date,
				Payer:    "BANK",
				Receiver: "FUND",
				Currency: "EUR",
				Amount:   amount,
				Label:    product.LabelRateLeg,
			}},
			Observables: map[string]float64{
				product.ObservableDuration:           275,
				product.ObservableFloatRateComponent: 5.5,
			},
		},
	}
}

func TestStore_RecordAndQuery(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "TRS-1", sim.Result{Date: d1, Kind: product.EventFixing, Output: product.EmptyOutput()}))
	require.NoError(t, s.Record(ctx, "TRS-1", paymentResult(product.EventReset, d1, 8.254999)))
	require.NoError(t, s.Record(ctx, "TRS-1", paymentResult(product.EventPayment, d2, 3)))
	require.NoError(t, s.Record(ctx, "OTHER", paymentResult(product.EventPayment, d2, 100)))

	recs, err := s.ByLeg(ctx, "TRS-1")
	require.NoError(t, err)
	require.Len(t, recs, 2, "events without payments are not journaled")

	first := recs[0]
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, s.RunID(), first.RunID)
	assert.Equal(t, "RESET", first.Kind)
	assert.True(t, first.Date.Equal(d1))
	assert.Equal(t, "BANK", first.Payer)
	assert.Equal(t, "FUND", first.Receiver)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("8.25")), first.Amount.String())
	assert.InDelta(t, 275, first.Duration, 0)
	assert.InDelta(t, 5.5, first.FltRateComp, 0)
	assert.Equal(t, "PAYMENT", recs[1].Kind)

	total, err := s.Total(ctx, "TRS-1")
	require.NoError(t, err)
	assert.Equal(t, "11.25", total.StringFixed(2))
}

func TestStore_RunsAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "cashflows.db")
	ctx := context.Background()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, "TRS-1", paymentResult(product.EventPayment, day, 3)))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.RunID(), second.RunID())

	recs, err := second.ByLeg(ctx, "TRS-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_RejectsNonFiniteAmount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	res := paymentResult(product.EventPayment, day, 3)
	res.Output.Payments = append(res.Output.Payments, paymentResult(product.EventPayment, day, math.NaN()).Output.Payments...)
	err := s.Record(ctx, "TRS-1", res)
	require.ErrorIs(t, err, ErrNonFiniteAmount)

	recs, err := s.ByLeg(ctx, "TRS-1")
	require.NoError(t, err)
	assert.Empty(t, recs, "a rejected event writes nothing")
	assert.Equal(t, 0, s.seq)

	require.NoError(t, s.Record(ctx, "TRS-1", paymentResult(product.EventPayment, day, 3)))
	recs, err = s.ByLeg(ctx, "TRS-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Seq)
}

func TestStore_SeqUnchangedOnWriteFailure(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	ctx := context.Background()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "TRS-1", paymentResult(product.EventPayment, day, 3)))
	require.Equal(t, 1, s.seq)

	require.NoError(t, s.Close())
	assert.Error(t, s.Record(ctx, "TRS-1", paymentResult(product.EventPayment, day, 4)))
	assert.Equal(t, 1, s.seq)
}

func TestAmount_MinorUnits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ccy    market.Currency
		amount float64
		want   string
	}{
		{"EUR", 1234.5678, "1234.57"},
		{"JPY", 1234.5678, "1235"},
		{"USD", -2.499, "-2.5"},
	}
	for _, tc := range cases {
		got, err := Amount(tc.ccy, tc.amount)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.String())
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Amount("EUR", bad)
		assert.ErrorIs(t, err, ErrNonFiniteAmount)
	}
}
