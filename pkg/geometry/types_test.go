package geometry

import "testing"

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(NewPoint2D(10, 40), NewPoint2D(2, 8))
	if r != NewRect(2, 8, 8, 32) {
		t.Fatalf("rect = %+v", r)
	}
	if r.Max() != NewPoint2D(10, 40) {
		t.Errorf("max = %+v", r.Max())
	}
	if r.Empty() || NewRect(1, 1, 0, 5).Empty() == false {
		t.Error("emptiness wrong")
	}
}

func TestIntersects(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	tests := []struct {
		r    Rect
		want bool
	}{
		{NewRect(5, 5, 10, 10), true},
		{NewRect(10, 0, 5, 5), false},
		{NewRect(-5, -5, 4, 4), false},
		{NewRect(2, 2, 1, 1), true},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.r); got != tt.want {
			t.Errorf("Intersects(%+v) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("clamp out of range")
	}
	if Clamp(5, 4, 1) != 4 {
		t.Error("lower bound should win on inverted range")
	}
	if NewPoint2D(3, 4).Sub(NewPoint2D(1, 1)) != NewPoint2D(2, 3) {
		t.Error("sub")
	}
}
