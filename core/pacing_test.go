package session

import (
	"testing"
	"time"
)

func TestPacingUnitDuration(t *testing.T) {
	testCases := []struct {
		pacing Pacing
		want   time.Duration
	}{
		{pacing: DefaultPacing, want: 2 * time.Second},
		{pacing: MaxPacing, want: 600 * time.Millisecond},
		{pacing: 0, want: 3 * time.Second},
		{pacing: 1000, want: 600 * time.Millisecond},
	}

	for _, tc := range testCases {
		if got := tc.pacing.UnitDuration(); got != tc.want {
			t.Fatalf("Pacing(%d).UnitDuration() = %s, want %s", tc.pacing, got, tc.want)
		}
	}
}
