package engine

import "testing"

func TestFormatTranscript(t *testing.T) {
	lines := []TimedLine{
		{Start: 1, Text: "Hello world."},
		{Start: 5, Text: "This is a test."},
	}
	want := "[00:00:01] Hello world. [00:00:05] This is a test."
	if got := FormatTranscript(lines); got != want {
		t.Errorf("FormatTranscript() = %q, want %q", got, want)
	}
	if got := FormatTranscript(nil); got != "" {
		t.Errorf("FormatTranscript(nil) = %q, want empty", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3725, "01:02:05"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.sec); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("FAST") != ModeFast {
		t.Error("FAST should parse as fast")
	}
	if ParseMode("") != ModeDetailed {
		t.Error("empty should default to detailed")
	}
}

func TestProgressFraction(t *testing.T) {
	if f := (Progress{Done: 1, Total: 4}).Fraction(); f != 0.25 {
		t.Errorf("Fraction() = %v, want 0.25", f)
	}
}
