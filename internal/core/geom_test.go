package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 20)

	tests := []struct {
		x, y     int
		expected bool
	}{
		{15, 15, true},  // Inside
		{10, 10, true},  // Top-left corner
		{29, 29, true},  // Just inside bottom-right
		{30, 30, false}, // Bottom-right edge (exclusive)
		{5, 15, false},  // Left of rect
		{15, 5, false},  // Above rect
	}

	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Contains(%d, %d) = %v, expected %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(10, 20, 30, 40)
	if r.Right() != 40 {
		t.Errorf("Right() = %d, expected 40", r.Right())
	}
	if r.Bottom() != 60 {
		t.Errorf("Bottom() = %d, expected 60", r.Bottom())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tt.val, tt.lo, tt.hi, got, tt.expected)
		}
	}
}

func TestAbs(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{5, 5}, {-5, 5}, {0, 0}} {
		if got := Abs(tt.in); got != tt.want {
			t.Errorf("Abs(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTurnsBetween(t *testing.T) {
	tests := []struct {
		from, to Orientation
		want     []Turn
	}{
		{OrientationUp, OrientationUp, nil},
		{OrientationUp, OrientationRight, []Turn{TurnRight}},
		{OrientationUp, OrientationLeft, []Turn{TurnLeft}},
		{OrientationUp, OrientationDown, []Turn{TurnRight, TurnRight}},
		{OrientationLeft, OrientationUp, []Turn{TurnRight}},
		{OrientationRight, OrientationLeft, []Turn{TurnRight, TurnRight}},
	}
	for _, tt := range tests {
		got := TurnsBetween(tt.from, tt.to)
		if len(got) != len(tt.want) {
			t.Errorf("TurnsBetween(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			continue
		}
		o := tt.from
		for i, turn := range got {
			if turn != tt.want[i] {
				t.Errorf("TurnsBetween(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
			o = o.Rotate(turn)
		}
		if o != tt.to {
			t.Errorf("rotating %s by %v ends at %s, want %s", tt.from, got, o, tt.to)
		}
	}
}

func TestOrientationRoundTrip(t *testing.T) {
	for _, o := range Orientations {
		got, ok := ParseOrientation(o.String())
		if !ok || got != o {
			t.Errorf("ParseOrientation(%q) = %s, %v", o.String(), got, ok)
		}
		if o.Opposite().Opposite() != o {
			t.Errorf("%s opposite twice is %s", o, o.Opposite().Opposite())
		}
	}
	if _, ok := ParseOrientation("sideways"); ok {
		t.Error("ParseOrientation accepted an unknown name")
	}
}

func TestPosNeighbours(t *testing.T) {
	p := P(2, 2)
	if got := p.Step(OrientationUp); got != P(2, 1) {
		t.Errorf("Step(up) = %s, want (2,1)", got)
	}
	if !p.Adjacent(P(3, 2)) || p.Adjacent(P(3, 3)) {
		t.Error("Adjacent should only accept edge neighbours")
	}
	if !p.InBounds(3, 3) || p.InBounds(2, 3) {
		t.Error("InBounds is wrong at the edge")
	}
}
