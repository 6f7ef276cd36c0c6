package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a conditional update matched no row because the
	// guarded column changed underneath it (stock or status).
	ErrConflict = errors.New("conditional update matched no rows")
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps page and limit into their accepted ranges.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Store groups the repositories so a service can run several of them inside
// one database transaction.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	StockMovements() StockMovementRepository
	Events() EventLogRepository
	Transaction(fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Products() ProductRepository { return NewProductRepo(s.db) }
func (s *gormStore) Carts() CartRepository       { return NewCartRepo(s.db) }
func (s *gormStore) Orders() OrderRepository     { return NewOrderRepo(s.db) }
func (s *gormStore) StockMovements() StockMovementRepository {
	return NewStockMovementRepo(s.db)
}
func (s *gormStore) Events() EventLogRepository { return NewEventLogRepo(s.db) }

func (s *gormStore) Transaction(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
