// Package store is the system of record. Three storage shapes live here:
// append-only quote snapshots keyed (ticker, observed_at), news articles
// deduped on their url, and a last-write-wins company profile dimension.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"marketgateway/internal/config"
	"marketgateway/internal/market"
)

// Error reports a storage write that failed for a reason other than the
// defined dedupe keys (constraint violation on another column, connection
// failure, ...).
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

type quoteRow struct {
	Ticker     string              `gorm:"primaryKey;size:32"`
	ObservedAt time.Time           `gorm:"primaryKey"`
	Price      decimal.Decimal     `gorm:"type:decimal(18,6);not null"`
	High       decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	Low        decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	Open       decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	PrevClose  decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	Volume     *int64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (quoteRow) TableName() string { return "stock_quotes" }

type articleRow struct {
	ID               uint   `gorm:"primaryKey"`
	TickerOrCategory string `gorm:"size:64;index"`
	Title            string `gorm:"not null"`
	Author           *string
	SourceName       string
	URL              string `gorm:"uniqueIndex;size:2048;not null"`
	Description      *string
	PublishedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (articleRow) TableName() string { return "news_articles" }

type profileRow struct {
	Symbol    string `gorm:"primaryKey;size:32"`
	Country   string
	Currency  string
	Exchange  string
	Industry  string
	IPODate   string `gorm:"column:ipo_date"`
	Name      string
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (profileRow) TableName() string { return "company_profiles" }

// Store wraps the process-wide connection pool. Open it once at startup and
// Close it at shutdown.
type Store struct {
	db *gorm.DB
}

// Open connects to postgres, sizes the pool and migrates the schema.
func Open(cfg config.DB) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return NewWithDB(db)
}

// NewWithDB wraps an already-open gorm DB and migrates the schema. Tests use
// this with an in-memory sqlite database.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&quoteRow{}, &articleRow{}, &profileRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CommitQuote appends one quote snapshot. A conflict on (ticker, observed_at)
// means the same snapshot was already ingested; that is a no-op, not an error.
func (s *Store) CommitQuote(ctx context.Context, q market.Quote) error {
	row := quoteRow{
		Ticker:     q.Ticker,
		ObservedAt: q.ObservedAt,
		Price:      q.Price,
		High:       q.High,
		Low:        q.Low,
		Open:       q.Open,
		PrevClose:  q.PrevClose,
		Volume:     q.Volume,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "observed_at"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return &Error{Op: "commit quote", Err: err}
	}
	return nil
}

// CommitArticles inserts a batch of articles in one statement with per-row
// conflict handling on url: an already-stored url is skipped and never blocks
// its siblings.
func (s *Store) CommitArticles(ctx context.Context, tickerOrCategory string, articles []market.Article) error {
	if len(articles) == 0 {
		return nil
	}
	rows := make([]articleRow, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, articleRow{
			TickerOrCategory: tickerOrCategory,
			Title:            a.Title,
			Author:           a.Author,
			SourceName:       a.Source.Name,
			URL:              a.URL,
			Description:      a.Description,
			PublishedAt:      a.PublishedAt,
		})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return &Error{Op: "commit articles", Err: err}
	}
	return nil
}

// UpsertProfile inserts the profile or, when the symbol exists, overwrites
// every non-key field with the latest provider values.
func (s *Store) UpsertProfile(ctx context.Context, p market.CompanyProfile) error {
	row := profileRow{
		Symbol:   p.Symbol,
		Country:  p.Country,
		Currency: p.Currency,
		Exchange: p.Exchange,
		Industry: p.Industry,
		IPODate:  p.IPODate,
		Name:     p.Name,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"country", "currency", "exchange", "industry", "ipo_date", "name", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return &Error{Op: "upsert profile", Err: err}
	}
	return nil
}

// CountQuotes reports stored snapshots for a ticker; used by tests and the
// ingest summary.
func (s *Store) CountQuotes(ctx context.Context, ticker string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&quoteRow{}).Where("ticker = ?", ticker).Count(&n).Error
	return n, err
}
