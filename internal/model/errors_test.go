package model

import (
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":     0,
		"120":  120 * time.Second,
		"1":    time.Second,
		"0":    0,
		"-5":   0,
		"soon": 0,
		"1.5":  0,
	}
	for in, want := range tests {
		if got := ParseRetryAfter(in); got != want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}
