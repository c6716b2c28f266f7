package model

import "testing"

func TestLocation_DistanceSquared(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want int64
	}{
		{name: "same point", a: NewLocation(10, 10, 10, 0), b: NewLocation(10, 10, 10, 500), want: 0},
		{name: "axis", a: NewLocation(0, 0, 0, 0), b: NewLocation(3, 4, 0, 0), want: 25},
		{name: "negative", a: NewLocation(-1, -1, -1, 0), b: NewLocation(1, 1, 1, 0), want: 12},
		{name: "no int32 overflow", a: NewLocation(-1_000_000_000, 0, 0, 0), b: NewLocation(1_000_000_000, 0, 0, 0), want: 4_000_000_000_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DistanceSquared(tt.b); got != tt.want {
				t.Errorf("DistanceSquared() = %d, want %d", got, tt.want)
			}
		})
	}
}
