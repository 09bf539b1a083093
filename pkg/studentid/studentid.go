// Package studentid builds and checks the printed student QR ID
// (EDU-YYYY-XXXX-XXXX) and renders it as a PNG.
package studentid

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/educare/track_backend/pkg/util/codes"
)

const (
	Prefix = "EDU"

	// QRSize is the edge length of rendered QR PNGs in pixels
	QRSize = 300
)

var (
	ErrInvalidFormat = errors.New("invalid student ID format")
	ErrInvalidYear   = errors.New("student ID year out of range")

	pattern = regexp.MustCompile(`^EDU-(\d{4})-([A-Z0-9]{4})-([A-Z0-9]{4})$`)
)

// Parts is a decomposed student ID.
type Parts struct {
	Year   int
	LRN4   string
	Suffix string
}

// Generate returns EDU-<year>-<last 4 LRN digits>-<4 random alphanumerics>.
// Non-digits in lrn are dropped and short LRNs are left-padded with zeros.
func Generate(year int, lrn string) (string, error) {
	if year < 1000 || year > 9999 {
		return "", ErrInvalidYear
	}
	suffix, err := codes.Printed.Random(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%s-%s", Prefix, year, lastFourDigits(lrn), suffix), nil
}

func lastFourDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) > 4 {
		return d[len(d)-4:]
	}
	return strings.Repeat("0", 4-len(d)) + d
}

// Normalize trims and upper-cases a scanned payload. Keyboard-wedge
// scanners sometimes deliver lower case.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code matches the printed format exactly.
func Valid(code string) bool {
	return pattern.MatchString(code)
}

func Parse(code string) (Parts, error) {
	m := pattern.FindStringSubmatch(code)
	if m == nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidFormat, code)
	}
	var year int
	fmt.Sscanf(m[1], "%d", &year)
	return Parts{Year: year, LRN4: m[2], Suffix: m[3]}, nil
}

// QRPNG renders code as a medium-recovery QR PNG of QRSize pixels.
func QRPNG(code string) ([]byte, error) {
	if !Valid(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, code)
	}
	return qrcode.Encode(code, qrcode.Medium, QRSize)
}
