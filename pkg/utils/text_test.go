package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short ascii", in: "hello", max: 10, want: "hello"},
		{name: "exact", in: "hello", max: 5, want: "hello"},
		{name: "korean cut by rune", in: "피클볼러입니다", max: 4, want: "피클볼러"},
		{name: "zero max", in: "abc", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("피클볼"); got != 3 {
		t.Errorf("RuneLen() = %d, want 3", got)
	}
}

func TestNormalizeSpace(t *testing.T) {
	if got := NormalizeSpace("  오늘   저녁\t7시  "); got != "오늘 저녁 7시" {
		t.Errorf("NormalizeSpace() = %q", got)
	}
}

func TestNormalizeFullWidthDigits(t *testing.T) {
	if got := NormalizeFullWidthDigits("２０２６－１０－１６ １９：３０"); got != "2026-10-16 19:30" {
		t.Errorf("NormalizeFullWidthDigits() = %q", got)
	}
}

func TestGenerateRandomID(t *testing.T) {
	a := GenerateRandomID(16)
	b := GenerateRandomID(16)
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
	if a == b {
		t.Error("two random ids should differ")
	}
}
