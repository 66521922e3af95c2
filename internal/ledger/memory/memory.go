// Package memory is the in-process ledger store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"finmood/internal/core"
	"finmood/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

// New returns a store holding seed, numbered from 1 in the given order.
func New(seed ...core.Transaction) *Store {
	s := &Store{nextID: 1, items: make([]core.Transaction, 0, len(seed))}
	for _, tx := range seed {
		tx.ID = s.nextID
		s.nextID++
		s.items = append(s.items, tx)
	}
	return s
}

// SampleTransactions is the data a fresh ledger starts with when no seed file exists.
func SampleTransactions() []core.Transaction {
	return []core.Transaction{
		{Date: core.NewDate(2023, 6, 1), Amount: core.Money{Cents: 10000}},
		{Date: core.NewDate(2023, 6, 2), Amount: core.Money{Cents: -20000}},
		{Date: core.NewDate(2023, 6, 3), Amount: core.Money{Cents: 30000}},
	}
}

type seedFile struct {
	Transactions []seedTransaction `yaml:"transactions"`
}

type seedTransaction struct {
	Date        string  `yaml:"date"`
	Amount      float64 `yaml:"amount"`
	Description string  `yaml:"description"`
}

// NewFromFile seeds a store from a YAML file. An empty path or a missing file
// yields the sample transactions; a malformed file is an error.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(SampleTransactions()...), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(SampleTransactions()...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	seed := make([]core.Transaction, 0, len(f.Transactions))
	for i, st := range f.Transactions {
		d, err := core.ParseDate(st.Date)
		if err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		tx := core.Transaction{Date: d, Amount: core.MoneyFromFloat(st.Amount), Description: st.Description}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		seed = append(seed, tx)
	}
	if _, err := core.Summarize(seed); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return New(seed...), nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Add stores tx under the next id. Ids are never reused, even after deletes.
// A write that would push the ledger total out of range is refused.
func (s *Store) Add(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := core.Summarize(append(s.items[:len(s.items):len(s.items)], tx)); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = s.nextID
	s.nextID++
	s.items = append(s.items, tx)
	return tx, nil
}

func (s *Store) Update(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(tx.ID)
	if i < 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	next := append([]core.Transaction(nil), s.items...)
	next[i] = tx
	if _, err := core.Summarize(next); err != nil {
		return core.Transaction{}, err
	}
	s.items = next
	return tx, nil
}

func (s *Store) Delete(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	removed := s.items[i]
	next := append(append([]core.Transaction(nil), s.items[:i]...), s.items[i+1:]...)
	if _, err := core.Summarize(next); err != nil {
		return core.Transaction{}, err
	}
	s.items = next
	return removed, nil
}

func (s *Store) Search(_ context.Context, r core.AmountRange) (core.Statement, error) {
	if err := r.Validate(); err != nil {
		return core.Statement{}, fmt.Errorf("%w: %v", ledger.ErrInvalidRange, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(core.Filter(s.items, r))
}

func (s *Store) Balance(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := core.Summarize(s.items)
	if err != nil {
		return core.Money{}, err
	}
	return st.Total, nil
}

// indexOf expects s.mu to be held.
func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
