package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmood/internal/core"
	"finmood/internal/ledger"
	"finmood/internal/ledger/memory"
)

type published struct {
	event string
	id    int64
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, event string, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{event, tx.ID})
	return f.err
}

type op struct {
	name string
	ok   bool
}

type fakeRecorder struct {
	ops  []op
	size int
}

func (f *fakeRecorder) ObserveLedgerOperation(operation string, err error) {
	f.ops = append(f.ops, op{operation, err == nil})
}

func (f *fakeRecorder) SetLedgerSize(n int) { f.size = n }

func newTx(cents int64) core.Transaction {
	return core.Transaction{Date: core.NewDate(2023, 6, 4), Amount: core.Money{Cents: cents}, Description: "coffee"}
}

func TestServiceLifecyclePublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := ledger.NewService(memory.New(memory.SampleTransactions()...), ledger.WithPublisher(pub), ledger.WithRecorder(rec))
	assert.Equal(t, 3, rec.size)

	created, err := svc.Create(ctx, newTx(-350))
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, 4, rec.size)

	created.Amount = core.Money{Cents: -400}
	_, err = svc.Update(ctx, created)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, 3, rec.size)

	assert.Equal(t, []published{
		{ledger.EventCreated, 4},
		{ledger.EventUpdated, 4},
		{ledger.EventDeleted, 4},
	}, pub.events)
	assert.Equal(t, []op{{"create", true}, {"update", true}, {"delete", true}}, rec.ops)
}

func TestServicePublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := ledger.NewService(memory.New(), ledger.WithPublisher(pub))

	created, err := svc.Create(ctx, newTx(100))
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestServiceValidationSkipsStoreAndEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := ledger.NewService(memory.New(), ledger.WithPublisher(pub), ledger.WithRecorder(rec))

	_, err := svc.Create(ctx, core.Transaction{Amount: core.Money{Cents: 1}})
	assert.ErrorIs(t, err, core.ErrZeroDate)

	bad := newTx(0)
	bad.ID = 1
	_, err = svc.Update(ctx, bad)
	assert.ErrorIs(t, err, core.ErrZeroAmount)

	assert.Empty(t, pub.events)
	assert.Equal(t, []op{{"create", false}, {"update", false}}, rec.ops)
}

func TestServiceNotFound(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := ledger.NewService(memory.New(), ledger.WithPublisher(pub))

	_, err := svc.Get(ctx, 7)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	missing := newTx(10)
	missing.ID = 7
	_, err = svc.Update(ctx, missing)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 7), ledger.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestServiceListSearchBalance(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc := ledger.NewService(memory.New(memory.SampleTransactions()...), ledger.WithRecorder(rec))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Transactions, 3)
	assert.Equal(t, int64(20000), all.Total.Cents)

	st, err := svc.Search(ctx, core.AmountRange{Min: core.Money{Cents: -20000}, Max: core.Money{Cents: 10000}})
	require.NoError(t, err)
	assert.Len(t, st.Transactions, 2)
	assert.Equal(t, int64(-10000), st.Total.Cents)

	_, err = svc.Search(ctx, core.AmountRange{Min: core.Money{Cents: 1}, Max: core.Money{Cents: 0}})
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)

	bal, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, all.Total, bal)

	_, err = svc.Get(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, []op{{"list", true}, {"search", true}, {"search", false}, {"balance", true}, {"read", true}}, rec.ops)
}

func TestServiceRejectsOverflowingCreate(t *testing.T) {
	ctx := context.Background()
	huge, err := core.ParseMoney("90000000000000000")
	require.NoError(t, err)
	pub := &fakePublisher{}
	svc := ledger.NewService(memory.New(), ledger.WithPublisher(pub))

	first := newTx(0)
	first.Amount = huge
	_, err = svc.Create(ctx, first)
	require.NoError(t, err)
	_, err = svc.Create(ctx, first)
	assert.ErrorIs(t, err, core.ErrAmountOverflow)

	bal, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, huge, bal)
	assert.Len(t, pub.events, 1, "refused write is not announced")
}
