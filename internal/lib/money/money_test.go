package money

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "already rounded", in: 100.50, want: 100.50},
		{name: "round down", in: 99.994, want: 99.99},
		{name: "round up", in: 99.996, want: 100.0},
		{name: "long tail from conversion", in: 117.64705882352942, want: 117.65},
		{name: "zero", in: 0, want: 0},
		{name: "negative savings", in: -12.346, want: -12.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round2(tt.in); got != tt.want {
				t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
