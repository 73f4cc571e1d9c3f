package progress

import "testing"

func TestComputeExactMatch(t *testing.T) {
	target := "def add(a, b):\n    return a + b"
	if got := Compute(target, target); got != 100 {
		t.Errorf("exact match: got %d, want 100", got)
	}
}

func TestComputeEmptyTarget(t *testing.T) {
	if got := Compute("", "anything"); got != 0 {
		t.Errorf("empty target: got %d, want 0", got)
	}
	if got := Compute("", ""); got != 0 {
		t.Errorf("empty both: got %d, want 0", got)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	if got := Compute("abcdef", ""); got != 0 {
		t.Errorf("empty input: got %d, want 0", got)
	}
}

func TestComputePartialPrefix(t *testing.T) {
	// 60 of 100 characters typed correctly.
	target := make([]byte, 100)
	input := make([]byte, 60)
	for i := range target {
		target[i] = 'a'
	}
	for i := range input {
		input[i] = 'a'
	}
	if got := Compute(string(target), string(input)); got != 60 {
		t.Errorf("60/100 prefix: got %d, want 60", got)
	}
}

func TestComputeMismatchedPositionsDoNotCount(t *testing.T) {
	if got := Compute("abcd", "abXd"); got != 75 {
		t.Errorf("3/4 matches: got %d, want 75", got)
	}
}

// A proper prefix, or any non-identical input, must never report 100 even
// when rounding would reach it.
func TestComputeNeverShowsHundredWithoutEquality(t *testing.T) {
	target := make([]byte, 1000)
	for i := range target {
		target[i] = 'x'
	}

	prefix := string(target[:999])
	if got := Compute(string(target), prefix); got >= 100 {
		t.Errorf("999/1000 prefix: got %d, want < 100", got)
	}

	almost := prefix + "y"
	if got := Compute(string(target), almost); got >= 100 {
		t.Errorf("trailing mismatch: got %d, want < 100", got)
	}
}

func TestComputeOverlongInput(t *testing.T) {
	// Extra characters past the target length contribute nothing.
	if got := Compute("ab", "abcdefgh"); got >= 100 {
		t.Errorf("overlong input: got %d, want < 100", got)
	}
}
