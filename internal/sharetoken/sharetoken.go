// Package sharetoken generates unguessable public identifiers for shared notes.
package sharetoken

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the symbol set tokens are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the token length used for note share identifiers.
const DefaultLength = 10

// Generator produces fixed-length tokens drawn uniformly from Alphabet
// using a cryptographically secure random source.
type Generator struct {
	length int
}

// New returns a Generator producing tokens of the given length.
// A non-positive length falls back to DefaultLength.
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}

	return &Generator{length: length}
}

// Generate returns a new random token.
func (g *Generator) Generate() (string, error) {
	alphabetLen := big.NewInt(int64(len(Alphabet)))
	result := make([]byte, g.length)

	for i := range result {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		result[i] = Alphabet[randomIndex.Int64()]
	}

	return string(result), nil
}
