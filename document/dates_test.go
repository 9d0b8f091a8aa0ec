package document

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	t.Run("year above pivot falls in the 1900s", func(t *testing.T) {
		result := NormalizeDate("30", "01", "15", 2025)
		require.Equal(t, "1930-01-15", result.ISO)
	})

	t.Run("year below pivot falls in the 2000s", func(t *testing.T) {
		result := NormalizeDate("10", "06", "01", 2025)
		require.Equal(t, "2010-06-01", result.ISO)
	})

	t.Run("year equal to pivot falls in the 2000s", func(t *testing.T) {
		result := NormalizeDate("25", "12", "31", 2025)
		require.Equal(t, "2025-12-31", result.ISO)
	})

	t.Run("pivot floats with the reference year", func(t *testing.T) {
		result := NormalizeDate("30", "05", "20", 2030)
		require.Equal(t, "2030-05-20", result.ISO)

		result = NormalizeDate("30", "05", "20", 2029)
		require.Equal(t, "1930-05-20", result.ISO)
	})

	t.Run("components are preserved verbatim", func(t *testing.T) {
		result := NormalizeDate("90", "01", "15", 2025)
		require.Equal(t, "90", result.YY)
		require.Equal(t, "01", result.MM)
		require.Equal(t, "15", result.DD)
	})

	t.Run("calendrically impossible days pass through", func(t *testing.T) {
		// Day-of-month validation is out of scope, only the century rule
		// applies.
		result := NormalizeDate("99", "02", "31", 2025)
		require.Equal(t, "1999-02-31", result.ISO)
	})

	t.Run("output year mod 100 always equals the input", func(t *testing.T) {
		for y := 0; y < 100; y++ {
			yy := fmt.Sprintf("%02d", y)
			result := NormalizeDate(yy, "01", "01", 2025)

			var year int
			_, err := fmt.Sscanf(result.ISO[:4], "%d", &year)
			require.NoError(t, err)
			require.Equal(t, y, year%100, "yy=%s", yy)

			if y <= 25 {
				require.Equal(t, 2000+y, year, "yy=%s should be 2000s", yy)
			} else {
				require.Equal(t, 1900+y, year, "yy=%s should be 1900s", yy)
			}
		}
	})
}
