// Package journal persists rate leg cashflows to a sqlite database.
package journal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/product"
	"github.com/meenmo/trsreset/sim"
)

// ErrNonFiniteAmount is returned for a NaN or infinite payment amount.
var ErrNonFiniteAmount = errors.New("non-finite amount")

// Record is one journaled payment.
type Record struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	RunID       string          `gorm:"index;size:36" json:"run_id"`
	LegID       string          `gorm:"index" json:"leg_id"`
	Seq         int             `json:"seq"`
	Date        time.Time       `gorm:"index" json:"date"`
	Kind        string          `json:"kind"`
	Payer       string          `json:"payer"`
	Receiver    string          `json:"receiver"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `gorm:"type:text" json:"amount"`
	Label       string          `json:"label"`
	Duration    float64         `json:"duration"`
	FltRateComp float64         `json:"flt_rate_comp"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store is a cashflow journal. Each Store writes under its own run id.
// It implements sim.Sink.
type Store struct {
	db    *gorm.DB
	runID string
	seq   int
}

// Open connects to the sqlite database at path, creating it if needed.
// ":memory:" opens a private in-memory journal.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get journal handle: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Store{db: db, runID: uuid.NewString()}, nil
}

// RunID identifies the records written through this Store.
func (s *Store) RunID() string { return s.runID }

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record journals the payments of a dispatched event. Events without
// payments are skipped. Nothing is written when any amount is not finite.
func (s *Store) Record(ctx context.Context, legID string, res sim.Result) error {
	if len(res.Output.Payments) == 0 {
		return nil
	}
	seq := s.seq
	recs := make([]Record, 0, len(res.Output.Payments))
	for _, p := range res.Output.Payments {
		amount, err := Amount(p.Currency, p.Amount)
		if err != nil {
			return fmt.Errorf("Record: leg %s %s: %w", legID, p.Date.Format("2006-01-02"), err)
		}
		seq++
		recs = append(recs, Record{
			ID:          uuid.NewString(),
			RunID:       s.runID,
			LegID:       legID,
			Seq:         seq,
			Date:        p.Date,
			Kind:        string(res.Kind),
			Payer:       p.Payer,
			Receiver:    p.Receiver,
			Currency:    string(p.Currency),
			Amount:      amount,
			Label:       p.Label,
			Duration:    res.Output.Observables[product.ObservableDuration],
			FltRateComp: res.Output.Observables[product.ObservableFloatRateComponent],
		})
	}
	if err := s.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("Record: leg %s: %w", legID, err)
	}
	s.seq = seq
	return nil
}

// ByLeg returns the leg's records of this run in dispatch order.
func (s *Store) ByLeg(ctx context.Context, legID string) ([]Record, error) {
	return s.ByRun(ctx, s.runID, legID)
}

// ByRun returns the leg's records written by any run, in dispatch order.
func (s *Store) ByRun(ctx context.Context, runID, legID string) ([]Record, error) {
	var recs []Record
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND leg_id = ?", runID, legID).
		Order("seq").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("ByRun: %w", err)
	}
	return recs, nil
}

// Total sums the leg's journaled amounts for this run.
func (s *Store) Total(ctx context.Context, legID string) (decimal.Decimal, error) {
	recs, err := s.ByLeg(ctx, legID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// Amount rounds a payment to the currency's minor unit.
func Amount(ccy market.Currency, amount float64) (decimal.Decimal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero, fmt.Errorf("%s %v: %w", ccy, amount, ErrNonFiniteAmount)
	}
	return decimal.NewFromFloat(amount).Round(minorUnits(ccy)), nil
}

func minorUnits(ccy market.Currency) int32 {
	switch ccy {
	case "JPY", "KRW":
		return 0
	default:
		return 2
	}
}
