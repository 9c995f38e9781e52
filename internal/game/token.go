package game

import (
	"crypto/rand"
	"math/big"
)

const (
	AccessCodeLength = 6
	SecretLength     = 8
	letters          = "abcdefghijklmnopqrstuvwxyz"
)

// TokenSource produces random lowercase strings for access codes and
// player secrets.
type TokenSource interface {
	Token(length int) string
}

type TokenFunc func(length int) string

func (f TokenFunc) Token(length int) string { return f(length) }

// CryptoTokens draws letters from crypto/rand.
var CryptoTokens TokenSource = TokenFunc(randomLetters)

func randomLetters(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(letters)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = letters[n.Int64()]
	}
	return string(b)
}
