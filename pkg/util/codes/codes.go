// Package codes draws short random identifiers from fixed alphabets.
package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidLength = errors.New("codes: length must be positive")

// Alphabet is the set of characters a code is drawn from.
type Alphabet string

const (
	// Printed drops 0, O, 1 and I, which guards misread when typing a
	// code off a damaged card.
	Printed Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// Local is for ids that never leave a terminal.
	Local Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Random returns n characters of a chosen uniformly with crypto/rand.
func (a Alphabet) Random(n int) (string, error) {
	if n < 1 {
		return "", ErrInvalidLength
	}
	if a == "" {
		return "", errors.New("codes: empty alphabet")
	}
	size := big.NewInt(int64(len(a)))
	out := make([]byte, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("codes: %w", err)
		}
		out[i] = a[k.Int64()]
	}
	return string(out), nil
}
