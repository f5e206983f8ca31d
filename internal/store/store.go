package store

import (
	"context"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/JP-Fernando/trading-tool/pkg/exception"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"
)

const defaultBatchSize = 500

// FillModel is one persisted fill, keyed by run.
type FillModel struct {
	ID         uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	RunID      string    `gorm:"column:run_id;type:varchar(64);not null;index:idx_backtest_fills_run_order,priority:1"`
	OrderID    uint64    `gorm:"column:order_id;not null;index:idx_backtest_fills_run_order,priority:2"`
	EventTs    int64     `gorm:"column:event_ts;not null"`
	Symbol     string    `gorm:"column:symbol;type:varchar(64);not null;index"`
	Side       string    `gorm:"column:side;type:varchar(8);not null"`
	Quantity   float64   `gorm:"column:quantity;type:double precision;not null"`
	Price      float64   `gorm:"column:price;type:double precision;not null"`
	Commission float64   `gorm:"column:commission;type:double precision;not null"`
	Slippage   float64   `gorm:"column:slippage;type:double precision;not null"`
	Venue      string    `gorm:"column:venue;type:varchar(32)"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP"`
}

func (FillModel) TableName() string {
	return "backtest_fills"
}

func newFillModel(runID string, f schema.Fill) FillModel {
	return FillModel{
		RunID:      runID,
		OrderID:    f.OrderID,
		EventTs:    int64(f.Timestamp),
		Symbol:     f.Symbol,
		Side:       f.Side.String(),
		Quantity:   f.FilledQuantity,
		Price:      f.FillPrice,
		Commission: f.Commission,
		Slippage:   f.Slippage,
		Venue:      f.Venue,
	}
}

// Fill converts the row back into an event.
func (m FillModel) Fill() schema.Fill {
	side := schema.SideUnknown
	switch m.Side {
	case schema.SideBuy.String():
		side = schema.SideBuy
	case schema.SideSell.String():
		side = schema.SideSell
	}
	return schema.Fill{
		OrderID:        m.OrderID,
		Timestamp:      schema.Timestamp(m.EventTs),
		Symbol:         m.Symbol,
		Side:           side,
		FilledQuantity: m.Quantity,
		FillPrice:      m.Price,
		Commission:     m.Commission,
		Slippage:       m.Slippage,
		Venue:          m.Venue,
	}
}

// Store exports fill history after a run.
type Store struct {
	db        *gorm.DB
	batchSize int
}

// Open connects to PostgreSQL.
func Open(opt Option) (*Store, error) {
	if !opt.Enabled() {
		return nil, exception.ErrStoreEmptyDSN
	}
	db, err := openPostgres(opt)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres").With("host", opt.Host)
	}
	return New(db, defaultBatchSize), nil
}

// New wraps an existing connection.
func New(db *gorm.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{db: db, batchSize: batchSize}
}

// DB returns the underlying gorm.DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Migrate creates or updates the fills table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&FillModel{}); err != nil {
		return errors.Wrap(err, "migrate fills")
	}
	return nil
}

// SaveFills inserts fills for runID in batches.
func (s *Store) SaveFills(ctx context.Context, runID string, fills []schema.Fill) error {
	if runID == "" {
		return exception.ErrStoreEmptyRunID
	}
	if len(fills) == 0 {
		return nil
	}
	rows := make([]FillModel, 0, len(fills))
	for _, f := range fills {
		rows = append(rows, newFillModel(runID, f))
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, s.batchSize).Error; err != nil {
		return errors.Wrap(err, "insert fills").With("run", runID)
	}
	return nil
}

// Fills loads the fills of one run in insertion order.
func (s *Store) Fills(ctx context.Context, runID string) ([]schema.Fill, error) {
	if runID == "" {
		return nil, exception.ErrStoreEmptyRunID
	}
	var rows []FillModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query fills").With("run", runID)
	}
	out := make([]schema.Fill, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Fill())
	}
	return out, nil
}

// DeleteRun removes every fill of a run and returns the number removed.
func (s *Store) DeleteRun(ctx context.Context, runID string) (int64, error) {
	if runID == "" {
		return 0, exception.ErrStoreEmptyRunID
	}
	res := s.db.WithContext(ctx).Where("run_id = ?", runID).Delete(&FillModel{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete fills").With("run", runID)
	}
	return res.RowsAffected, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
