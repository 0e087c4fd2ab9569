package bubble

import (
	"math"
	"testing"
)

func TestSize(t *testing.T) {
	tests := []struct {
		freq int
		want float64
	}{
		{0, 45},
		{1, 45 + math.Log(2)*25},
		{10, 45 + math.Log(11)*25},
		{100000, 45 + math.Log(100001)*25},
	}
	for _, tt := range tests {
		if got := Size(tt.freq); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Size(%d) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}

func TestSizeMonotonic(t *testing.T) {
	prev := Size(0)
	for f := 1; f < 1000; f++ {
		s := Size(f)
		if s <= prev {
			t.Fatalf("Size(%d) = %v, not larger than Size(%d) = %v", f, s, f-1, prev)
		}
		prev = s
	}
}

func TestOverlaps(t *testing.T) {
	a := Bubble{Size: 20}
	tests := []struct {
		name string
		b    Bubble
		want bool
	}{
		{"same center", Bubble{Size: 20}, true},
		{"touching", Bubble{X: 20, Size: 20}, false},
		{"intersecting", Bubble{X: 19.9, Size: 20}, true},
		{"apart", Bubble{X: 30, Y: 30, Size: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(a); got != tt.want {
				t.Errorf("Overlaps() not symmetric")
			}
		})
	}
}

func TestBounds(t *testing.T) {
	minX, minY, maxX, maxY := Bounds(nil)
	if minX != 0 || minY != 0 || maxX != 0 || maxY != 0 {
		t.Errorf("Bounds(nil) = %v %v %v %v, want zeros", minX, minY, maxX, maxY)
	}

	minX, minY, maxX, maxY = Bounds([]Bubble{
		{X: 0, Y: 0, Size: 10},
		{X: 100, Y: -50, Size: 40},
	})
	if minX != -5 || minY != -70 || maxX != 120 || maxY != 5 {
		t.Errorf("Bounds() = %v %v %v %v, want -5 -70 120 5", minX, minY, maxX, maxY)
	}
}
