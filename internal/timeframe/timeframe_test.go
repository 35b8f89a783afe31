package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/timeframe"
)

func TestParseDay(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	for _, s := range []string{"2024-03-05", " 2024-03-05 ", "2024/03/05", "03/05/2024", "20240305", "2024-03-05T00:00:00Z"} {
		t.Run(s, func(t *testing.T) {
			got, ok := timeframe.ParseDay(s)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	for _, s := range []string{"", "yesterday", "2024-13-40"} {
		t.Run("invalid "+s, func(t *testing.T) {
			_, ok := timeframe.ParseDay(s)
			assert.False(t, ok)
		})
	}
}

func TestCeilDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, timeframe.CeilDays(start, start))
	assert.Equal(t, 9, timeframe.CeilDays(start, start.AddDate(0, 0, 9)))
	assert.Equal(t, 1, timeframe.CeilDays(start, start.Add(time.Hour)))
}

func TestTruncateToBucket(t *testing.T) {
	// Wednesday
	ts := time.Date(2024, 7, 17, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		size timeframe.BucketSize
		want time.Time
	}{
		{timeframe.BucketSizeDay, time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)},
		{timeframe.BucketSizeWeek, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)},
		{timeframe.BucketSizeMonth, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{timeframe.BucketSizeYear, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, timeframe.TruncateToBucket(ts, tt.size))
		})
	}

	t.Run("sunday belongs to the previous week", func(t *testing.T) {
		sunday := time.Date(2024, 7, 21, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
			timeframe.TruncateToBucket(sunday, timeframe.BucketSizeWeek))
	})
}

func TestParseBucketSize(t *testing.T) {
	size, ok := timeframe.ParseBucketSize("")
	assert.True(t, ok)
	assert.Equal(t, timeframe.BucketSizeDay, size)

	size, ok = timeframe.ParseBucketSize(" Week ")
	assert.True(t, ok)
	assert.Equal(t, timeframe.BucketSizeWeek, size)

	_, ok = timeframe.ParseBucketSize("hour")
	assert.False(t, ok)
}

func TestParseRange(t *testing.T) {
	t.Run("open range", func(t *testing.T) {
		r, err := timeframe.ParseRange("", "")
		require.NoError(t, err)
		assert.True(t, r.IsZero())
		assert.True(t, r.ContainsDate("garbage"))
		assert.Equal(t, "*..*", r.Key())
	})

	t.Run("bounded range is inclusive", func(t *testing.T) {
		r, err := timeframe.ParseRange("2024-01-02", "2024-01-04")
		require.NoError(t, err)

		assert.False(t, r.ContainsDate("2024-01-01"))
		assert.True(t, r.ContainsDate("2024-01-02"))
		assert.True(t, r.ContainsDate("2024-01-04"))
		assert.False(t, r.ContainsDate("2024-01-05"))
		assert.False(t, r.ContainsDate("not a date"))
		assert.Equal(t, "2024-01-02..2024-01-04", r.Key())
	})

	t.Run("half open", func(t *testing.T) {
		r, err := timeframe.ParseRange("2024-01-02", "")
		require.NoError(t, err)
		assert.True(t, r.ContainsDate("2030-01-01"))
		assert.False(t, r.ContainsDate("2023-12-31"))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := timeframe.ParseRange("soon", "")
		assert.Error(t, err)

		_, err = timeframe.ParseRange("2024-02-01", "2024-01-01")
		assert.Error(t, err)
	})
}

func TestFixedTimeProvider(t *testing.T) {
	at := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	p := timeframe.FixedTimeProvider{At: at}
	assert.True(t, at.Equal(p.Now(time.UTC)))
}
