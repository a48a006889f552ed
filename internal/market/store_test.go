package market

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func obsAt(crop, region string, price float64, date time.Time) PriceObservation {
	return PriceObservation{
		Crop:   crop,
		Region: region,
		Price:  price,
		Unit:   "UGX/kg",
		Date:   date,
		Source: "test",
	}
}

func TestAppendThenRead(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -2))))

	// The append is persisted before Append returns, so the very next
	// read observes it.
	history, err := store.History("maize", "central", now)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 100.0, history[0].Price)
	assert.Equal(t, "UGX/kg", history[0].Unit)
}

func TestHistoryOrderedAndFiltered(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Append(obsAt("maize", "central", 120, now.AddDate(0, 0, -1))))
	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -8))))
	require.NoError(t, store.Append(obsAt("beans", "central", 300, now.AddDate(0, 0, -3))))
	require.NoError(t, store.Append(obsAt("maize", "eastern", 110, now.AddDate(0, 0, -3))))

	history, err := store.History("maize", "central", now)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Ascending by date
	assert.Equal(t, 100.0, history[0].Price)
	assert.Equal(t, 120.0, history[1].Price)
}

func TestHistoryExcludesFutureDates(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -1))))
	require.NoError(t, store.Append(obsAt("maize", "central", 999, now.AddDate(0, 0, 3))))

	history, err := store.History("maize", "central", now)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 100.0, history[0].Price)
}

func TestRecentFilters(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -2))))
	require.NoError(t, store.Append(obsAt("maize", "eastern", 110, now.AddDate(0, 0, -2))))
	require.NoError(t, store.Append(obsAt("beans", "central", 300, now.AddDate(0, 0, -2))))
	require.NoError(t, store.Append(obsAt("maize", "central", 90, now.AddDate(0, 0, -30))))

	since := now.AddDate(0, 0, -7)

	all, err := store.Recent(since, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	maize, err := store.Recent(since, "maize", "")
	require.NoError(t, err)
	assert.Len(t, maize, 2)

	maizeCentral, err := store.Recent(since, "maize", "central")
	require.NoError(t, err)
	require.Len(t, maizeCentral, 1)
	assert.Equal(t, 100.0, maizeCentral[0].Price)
}

func TestConcurrentAppendsAndReads(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = store.Append(obsAt("maize", "central", float64(100+i), now.AddDate(0, 0, -i-1)))
		}
	}()

	// Readers never observe a partially written observation
	for i := 0; i < 20; i++ {
		history, err := store.History("maize", "central", now)
		require.NoError(t, err)
		for _, obs := range history {
			assert.NotZero(t, obs.Price)
			assert.Equal(t, "maize", obs.Crop)
		}
	}
	<-done
}
