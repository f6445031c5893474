package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Run("full grammar", func(t *testing.T) {
		d, ok := ParseDuration("P1DT2H30M")
		require.True(t, ok)
		assert.Equal(t, 95400, d.TotalSeconds())
		assert.Equal(t, Duration{Days: 1, Hours: 2, Minutes: 30}, d)
		// Re-derivation from the parsed structure matches.
		assert.Equal(t, time.Duration(95400)*time.Second, d.AsDuration())
	})

	t.Run("time only", func(t *testing.T) {
		d, ok := ParseDuration("PT4H")
		require.True(t, ok)
		assert.Equal(t, 4*3600, d.TotalSeconds())
	})

	t.Run("seconds", func(t *testing.T) {
		d, ok := ParseDuration("PT90S")
		require.True(t, ok)
		assert.Equal(t, 90, d.TotalSeconds())
	})

	t.Run("rejects what the grammar excludes", func(t *testing.T) {
		for _, s := range []string{"", "P", "PT", "P1W", "P1M", "P1Y", "4h", "PT2H30", "T2H", "P-1D"} {
			_, ok := ParseDuration(s)
			assert.False(t, ok, "expected %q to be rejected", s)
		}
	})
}

func TestSnapCadence(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want time.Duration
	}{
		{4 * time.Hour, 4 * time.Hour},
		{3*time.Hour + 50*time.Minute, 4 * time.Hour},
		{4*time.Hour + 19*time.Minute, 4 * time.Hour},
		{23*time.Hour + 45*time.Minute, 24 * time.Hour},
		{12*time.Hour + 20*time.Minute, 12 * time.Hour},
		// Not canonical but within tolerance of a whole hour.
		{5*time.Hour + 10*time.Minute, 5 * time.Hour},
		// Outside tolerance: unchanged.
		{90 * time.Minute, 90 * time.Minute},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SnapCadence(tc.in), "snap %v", tc.in)
	}
}

func TestDescribeCadence(t *testing.T) {
	t.Run("canonical buckets within tolerance", func(t *testing.T) {
		for _, h := range []int{1, 2, 3, 4, 6, 8, 12, 24} {
			base := time.Duration(h) * time.Hour
			want := fmt.Sprintf("Every %d hours", h)
			if h == 1 {
				want = "Every 1 hour"
			}
			for _, jitter := range []time.Duration{-20 * time.Minute, 0, 20 * time.Minute} {
				assert.Equal(t, want, DescribeCadence(base+jitter), "%v%+v", base, jitter)
			}
		}
	})

	t.Run("fractional fallbacks", func(t *testing.T) {
		assert.Equal(t, "Every 1.50 hours", DescribeCadence(90*time.Minute))
		assert.Equal(t, "Every 12.00 minutes", DescribeCadence(12*time.Minute))
		assert.Equal(t, "Every 30.00 seconds", DescribeCadence(30*time.Second))
	})
}
