package tokens

import "testing"

func TestCount(t *testing.T) {
	e := NewEstimator()

	if got := e.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d", got)
	}

	short := e.Count("hello")
	long := e.Count("hello there, this is a considerably longer sentence about tokens")
	if short < 1 {
		t.Errorf("Count(hello) = %d", short)
	}
	if long <= short {
		t.Errorf("longer text counted %d tokens, shorter %d", long, short)
	}
}

func TestCount_Stable(t *testing.T) {
	e := NewEstimator()
	a := e.Count("the same text")
	b := e.Count("the same text")
	if a != b {
		t.Errorf("counts differ: %d vs %d", a, b)
	}
}
