package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factoryops/maintenance-service/internal/scheduling"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "0m"},
		{"negative", -time.Minute, "0m"},
		{"minutes only", 45 * time.Minute, "45m"},
		{"hours and minutes", 90 * time.Minute, "1h 30m"},
		{"days and hours", 25 * time.Hour, "1d 1h"},
		{"all components", 2*24*time.Hour + 4*time.Hour + 5*time.Minute, "2d 4h 5m"},
		{"exact hour", time.Hour, "1h"},
		{"exact day", 24 * time.Hour, "1d"},
		{"sub-minute remainder", 30 * time.Second, "0m"},
		{"day with sub-minute remainder", 24*time.Hour + 30*time.Second, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, scheduling.FormatDuration(tc.in))
		})
	}
}

func TestDecimalHours(t *testing.T) {
	require.Equal(t, 0.0, scheduling.DecimalHours(0))
	require.Equal(t, 0.75, scheduling.DecimalHours(45*time.Minute))
	require.Equal(t, 1.5, scheduling.DecimalHours(90*time.Minute))
	require.Equal(t, 2.25, scheduling.DecimalHours(2*time.Hour+15*time.Minute))
	require.Equal(t, 0.01, scheduling.DecimalHours(30*time.Second))
}
