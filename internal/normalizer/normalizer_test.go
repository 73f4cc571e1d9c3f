package normalizer

import "testing"

func TestNormalizeExact(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		lang string
		want string
	}{
		{"trims whitespace", "  hello world \n", "python", "hello world"},
		{"folds crlf", "a\r\nb\r\n", "python", "a\nb"},
		{"empty input", "", "python", ""},
		{"interior whitespace kept", "a  b\nc", "python", "a  b\nc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.lang, ModeExact); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeStripsJVMBanner(t *testing.T) {
	raw := "Picked up _JAVA_OPTIONS: -Xmx64m\n42\n"
	if got := Normalize(raw, "java", ModeExact); got != "42" {
		t.Errorf("java banner not stripped: got %q", got)
	}

	// Non-java output keeps the line.
	if got := Normalize(raw, "python", ModeExact); got == "42" {
		t.Error("banner stripped for non-java language")
	}
}

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"The answer is 42!", "42"},
		{"-17", "-17"},
		{"result: -3 (approx)", "-3"},
		{"no digits here", ""},
		{"1 2 3", "123"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw, "python", ModeNumeric); got != tt.want {
			t.Errorf("Normalize(%q, numeric) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeNumericEquivalence(t *testing.T) {
	a := Normalize("Sum = 15\n", "python", ModeNumeric)
	b := Normalize("15", "python", ModeNumeric)
	if a != b {
		t.Errorf("verbose and bare numeric output differ: %q vs %q", a, b)
	}
}
