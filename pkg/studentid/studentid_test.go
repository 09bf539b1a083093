package studentid

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		lrn      string
		wantLRN4 string
	}{
		{"136512345678", "5678"},
		{"1365-1234-0042", "0042"},
		{"42", "0042"},
		{"", "0000"},
	}
	for _, tt := range tests {
		t.Run(tt.lrn, func(t *testing.T) {
			code, err := Generate(2026, tt.lrn)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if !Valid(code) {
				t.Fatalf("generated %q does not validate", code)
			}
			p, err := Parse(code)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.Year != 2026 || p.LRN4 != tt.wantLRN4 {
				t.Errorf("Parse(%q) = %+v", code, p)
			}
		})
	}

	if _, err := Generate(26, "1234"); !errors.Is(err, ErrInvalidYear) {
		t.Errorf("two-digit year err = %v", err)
	}
}

func TestGenerateIsRandom(t *testing.T) {
	seen := map[string]bool{}
	for range 20 {
		code, _ := Generate(2026, "1234")
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("20 generated codes were all identical")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"EDU-2026-1234-AB9Z", true},
		{"EDU-2026-ABCD-0000", true},
		{"edu-2026-1234-ab9z", false},
		{"EDU-26-1234-AB9Z", false},
		{"EDU-2026-123-AB9Z", false},
		{"EDU-2026-1234-AB9Z-", false},
		{" EDU-2026-1234-AB9Z", false},
		{"STU-2026-1234-AB9Z", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if !Valid(Normalize(" edu-2026-1234-ab9z\n")) {
		t.Error("normalized scanner input should validate")
	}
}

func TestQRPNG(t *testing.T) {
	b, err := QRPNG("EDU-2026-1234-AB9Z")
	if err != nil {
		t.Fatalf("QRPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := img.Bounds().Dx(); got != QRSize {
		t.Errorf("width = %d, want %d", got, QRSize)
	}

	if _, err := QRPNG("not-a-code"); err == nil || !strings.Contains(err.Error(), "invalid student ID") {
		t.Errorf("invalid code err = %v", err)
	}
}
