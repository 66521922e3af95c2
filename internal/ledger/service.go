package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"finmood/internal/core"
	"finmood/internal/log"
)

// Publisher announces ledger changes.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, event string, tx core.Transaction) error
}

// Recorder receives ledger measurements.
type Recorder interface {
	ObserveLedgerOperation(operation string, err error)
	SetLedgerSize(n int)
}

// Service orchestrates ledger operations across the store and the publisher.
type Service struct {
	store     Store
	publisher Publisher
	recorder  Recorder
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder != nil {
		s.recorder.SetLedgerSize(store.Len())
	}
	return s
}

// List returns all transactions and their balance.
func (s *Service) List(ctx context.Context) (core.Statement, error) {
	txs, err := s.store.List(ctx)
	s.observe(log.OpList, err)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list transactions: %w", err)
	}
	st, err := core.Summarize(txs)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list transactions: %w", err)
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	s.observe(log.OpRead, err)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// Create validates and stores tx, then publishes a created event.
func (s *Service) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		s.observe(log.OpCreate, err)
		return core.Transaction{}, err
	}
	stored, err := s.store.Add(ctx, tx)
	s.observe(log.OpCreate, err)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, EventCreated, stored)
	return stored, nil
}

// Update validates and replaces the transaction with tx.ID.
func (s *Service) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		s.observe(log.OpUpdate, err)
		return core.Transaction{}, err
	}
	stored, err := s.store.Update(ctx, tx)
	s.observe(log.OpUpdate, err)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	s.publish(ctx, EventUpdated, stored)
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Delete(ctx, id)
	s.observe(log.OpDelete, err)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.publish(ctx, EventDeleted, removed)
	return nil
}

// Search filters by amount, bounds included.
func (s *Service) Search(ctx context.Context, r core.AmountRange) (core.Statement, error) {
	st, err := s.store.Search(ctx, r)
	s.observe(log.OpSearch, err)
	if err != nil {
		return core.Statement{}, fmt.Errorf("search transactions: %w", err)
	}
	return st, nil
}

func (s *Service) Balance(ctx context.Context) (core.Money, error) {
	b, err := s.store.Balance(ctx)
	s.observe(log.OpBalance, err)
	if err != nil {
		return core.Money{}, fmt.Errorf("balance: %w", err)
	}
	return b, nil
}

func (s *Service) observe(op string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveLedgerOperation(op, err)
	if err == nil {
		s.recorder.SetLedgerSize(s.store.Len())
	}
}

// publish never fails the caller: the store already holds the change.
func (s *Service) publish(ctx context.Context, event string, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldComponent, log.ComponentLedger, "event", event, log.FieldTxID, tx.ID, log.FieldError, err)
	}
}
