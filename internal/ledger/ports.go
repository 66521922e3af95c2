// Package ledger defines the transaction store ports and the service that
// orchestrates writes and event publishing on top of them.
package ledger

import (
	"context"
	"errors"

	"finmood/internal/core"
)

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrInvalidRange = errors.New("invalid amount range")
)

// Event names, also used as AMQP routing keys.
const (
	EventCreated = "transaction.created"
	EventUpdated = "transaction.updated"
	EventDeleted = "transaction.deleted"
)

// Ports for storage adapters.
type (
	TransactionReader interface {
		// List returns every transaction in insertion order.
		List(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		Len() int
	}

	TransactionWriter interface {
		// Add stores tx under a fresh id and returns the stored copy.
		Add(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// Update replaces the transaction with tx.ID.
		Update(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// Delete removes the transaction and returns what was removed.
		Delete(ctx context.Context, id int64) (core.Transaction, error)
	}

	TransactionSearcher interface {
		// Search returns the transactions whose amount lies in r, bounds included.
		Search(ctx context.Context, r core.AmountRange) (core.Statement, error)
		Balance(ctx context.Context) (core.Money, error)
	}

	Store interface {
		TransactionReader
		TransactionWriter
		TransactionSearcher
	}
)
