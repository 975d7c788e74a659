package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/storage"
)

func TestJournalMissingFileIsEmpty(t *testing.T) {
	journal := storage.NewJSONJournal(filepath.Join(t.TempDir(), "trades.json"))

	records, err := journal.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "trades.json")
	journal := storage.NewJSONJournal(path)

	in := []domain.TradeRecord{
		{
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Type:      domain.PositionLong,
			Price:     50000,
			Amount:    0.2,
			Fee:       5,
			NetWorth:  9995,
			Leverage:  1.0,
		},
		{
			Timestamp:   time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
			Type:        domain.PositionClose,
			Price:       51000,
			Amount:      0.2,
			RealizedPnL: 200,
			Fee:         5.1,
			NetWorth:    10189.9,
		},
	}
	require.NoError(t, journal.Save(in))

	out, err := journal.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// The temp file from the atomic write must not survive the save.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJournalCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := storage.NewJSONJournal(path).Load()
	assert.Error(t, err)
}

func TestJournalRewriteReplacesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	journal := storage.NewJSONJournal(path)

	require.NoError(t, journal.Save([]domain.TradeRecord{{Type: domain.PositionLong}}))
	require.NoError(t, journal.Save([]domain.TradeRecord{
		{Type: domain.PositionLong},
		{Type: domain.PositionClose},
	}))

	out, err := journal.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.PositionClose, out[1].Type)
}
