package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "data", "csb19.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn)
}

func testGroup(ref string) *types.PaymentGroup {
	return &types.PaymentGroup{
		Reference:   ref,
		Presenter:   "ACME",
		Journal:     "Remesas",
		PaymentDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Receipts: []types.Receipt{
			{Name: "Juan", Amount: decimal.RequireFromString("10.50")},
			{Name: "Ana", Amount: decimal.RequireFromString("4.50")},
		},
	}
}

func TestAttachAndGet(t *testing.T) {
	store := openTestStore(t)

	location, err := store.Attach(testGroup("REM001"), "line1\r\nline2")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:1", location)

	a, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "REM001", a.Group)
	assert.Equal(t, "ACME", a.Presenter)
	assert.Equal(t, "Remesas", a.Journal)
	assert.Equal(t, "REM001.txt", a.FileName)
	assert.Equal(t, 2, a.Receipts)
	assert.Equal(t, "15.00", a.Amount)
	assert.Equal(t, "2024-03-05", a.PaymentDate)
	assert.Equal(t, "line1\r\nline2", a.Content)
}

func TestListFiltersByGroup(t *testing.T) {
	store := openTestStore(t)

	for _, ref := range []string{"REM001", "REM002", "REM001"} {
		_, err := store.Attach(testGroup(ref), "x")
		require.NoError(t, err)
	}

	all, err := store.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rem1, err := store.List("REM001")
	require.NoError(t, err)
	require.Len(t, rem1, 2)
	assert.Equal(t, int64(3), rem1[0].ID, "newest first")
	assert.Empty(t, rem1[0].Content)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}
