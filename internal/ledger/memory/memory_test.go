package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmood/internal/core"
	"finmood/internal/ledger"
)

func tx(cents int64, desc string) core.Transaction {
	return core.Transaction{Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: cents}, Description: desc}
}

func TestStoreAddAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.Add(ctx, tx(100, "a"))
	require.NoError(t, err)
	b, err := s.Add(ctx, tx(200, "b"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	_, err = s.Delete(ctx, b.ID)
	require.NoError(t, err)

	c, err := s.Add(ctx, tx(300, "c"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID, "deleted ids are not reused")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Description)
	assert.Equal(t, "c", list[1].Description)
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Add(context.Background(), core.Transaction{Date: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrZeroAmount)
	assert.Equal(t, 0, s.Len())
}

func TestStoreUnknownID(t *testing.T) {
	ctx := context.Background()
	s := New(SampleTransactions()...)

	_, err := s.Get(ctx, 42)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	missing := tx(1, "")
	missing.ID = 42
	_, err = s.Update(ctx, missing)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = s.Delete(ctx, 42)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 3, s.Len())
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := New(SampleTransactions()...)

	changed := tx(-5050, "rent")
	changed.ID = 2
	_, err := s.Update(ctx, changed)
	require.NoError(t, err)

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, changed, got)
}

func TestStoreListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(SampleTransactions()...)

	list, _ := s.List(ctx)
	list[0].Description = "mutated"

	got, _ := s.Get(ctx, 1)
	assert.Empty(t, got.Description)
}

func TestStoreSearchAndBalance(t *testing.T) {
	ctx := context.Background()
	s := New(SampleTransactions()...)

	bal, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), bal.Cents)

	tests := []struct {
		name  string
		r     core.AmountRange
		ids   []int64
		total int64
	}{
		{"inclusive bounds", core.AmountRange{Min: core.Money{Cents: 10000}, Max: core.Money{Cents: 30000}}, []int64{1, 3}, 40000},
		{"debits only", core.AmountRange{Min: core.Money{Cents: -100000}, Max: core.Money{Cents: 0}}, []int64{2}, -20000},
		{"single point", core.AmountRange{Min: core.Money{Cents: 10000}, Max: core.Money{Cents: 10000}}, []int64{1}, 10000},
		{"nothing", core.AmountRange{Min: core.Money{Cents: 1}, Max: core.Money{Cents: 2}}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := s.Search(ctx, tt.r)
			require.NoError(t, err)
			var ids []int64
			for _, tx := range st.Transactions {
				ids = append(ids, tx.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.total, st.Total.Cents)
		})
	}

	_, err = s.Search(ctx, core.AmountRange{Min: core.Money{Cents: 5}, Max: core.Money{Cents: 1}})
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)
}

func TestStoreRefusesOverflowingTotal(t *testing.T) {
	ctx := context.Background()
	huge, err := core.ParseMoney("90000000000000000")
	require.NoError(t, err)
	s := New()

	_, err = s.Add(ctx, core.Transaction{Date: core.NewDate(2024, 3, 1), Amount: huge})
	require.NoError(t, err)
	_, err = s.Add(ctx, core.Transaction{Date: core.NewDate(2024, 3, 2), Amount: huge})
	assert.ErrorIs(t, err, core.ErrAmountOverflow)
	assert.Equal(t, 1, s.Len())

	bal, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, huge, bal)

	small, err := s.Add(ctx, tx(100, "small"))
	require.NoError(t, err)
	_, err = s.Update(ctx, core.Transaction{ID: small.ID, Date: small.Date, Amount: huge})
	assert.ErrorIs(t, err, core.ErrAmountOverflow)
	got, err := s.Get(ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount.Cents, "refused update leaves the row untouched")
}

func TestStoreSearchReportsOverflow(t *testing.T) {
	ctx := context.Background()
	big := core.Money{Cents: 6000000000000000000}
	s := New()
	for _, amt := range []core.Money{big, {Cents: -big.Cents}, big} {
		_, err := s.Add(ctx, core.Transaction{Date: core.NewDate(2024, 3, 1), Amount: amt})
		require.NoError(t, err)
	}

	_, err := s.Search(ctx, core.AmountRange{Min: core.Money{Cents: 0}, Max: big})
	assert.ErrorIs(t, err, core.ErrAmountOverflow)

	_, err = s.Delete(ctx, 2)
	assert.ErrorIs(t, err, core.ErrAmountOverflow)
	assert.Equal(t, 3, s.Len(), "refused delete keeps the offsetting row")
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	t.Run("missing file falls back to samples", func(t *testing.T) {
		s, err := NewFromFile(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		bal, _ := s.Balance(context.Background())
		assert.Equal(t, int64(20000), bal.Cents)
	})

	t.Run("empty path falls back to samples", func(t *testing.T) {
		s, err := NewFromFile("")
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("seed file", func(t *testing.T) {
		p := mustWrite("seed.yaml", `transactions:
  - date: "2024-01-15"
    amount: 1250.5
    description: salary
  - date: "2024-01-16"
    amount: -99.99
`)
		s, err := NewFromFile(p)
		require.NoError(t, err)

		list, _ := s.List(context.Background())
		require.Len(t, list, 2)
		assert.Equal(t, int64(1), list[0].ID)
		assert.Equal(t, int64(125050), list[0].Amount.Cents)
		assert.Equal(t, "salary", list[0].Description)
		assert.Equal(t, int64(-9999), list[1].Amount.Cents)
		assert.Equal(t, "2024-01-16", list[1].Date.String())
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := NewFromFile(mustWrite("bad.yaml", "transactions: 5\n"))
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := NewFromFile(mustWrite("date.yaml", "transactions:\n  - date: yesterday\n    amount: 1\n"))
		assert.ErrorIs(t, err, core.ErrInvalidDate)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := NewFromFile(mustWrite("zero.yaml", "transactions:\n  - date: \"2024-01-01\"\n    amount: 0\n"))
		assert.ErrorIs(t, err, core.ErrZeroAmount)
	})
}

func TestStoreConcurrentAdds(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(context.Background(), tx(1, ""))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	bal, _ := s.Balance(context.Background())
	assert.Equal(t, int64(50), bal.Cents)
}
