package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{"local mobile", "0917 123 4567", "", "+639171234567"},
		{"already e164", "+639171234567", "PH", "+639171234567"},
		{"foreign prefix wins", "+14155552671", "ph", "+14155552671"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "12", "not a number"} {
		if _, err := Normalize(raw, "PH"); !errors.Is(err, ErrInvalid) {
			t.Errorf("Normalize(%q) error = %v, want ErrInvalid", raw, err)
		}
	}
}
