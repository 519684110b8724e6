package auth

import (
	"crypto/rand"
	"math/big"
)

const (
	vowels     = "aeiouy"
	consonants = "bcdfghjklmnpqrstvwxz"
	digits     = "0123456789"
	symbols    = "!@#$%^&*()"
)

// RandomPassword builds a pronounceable initial password: alternating
// consonants and vowels, then a digit and a symbol. The creator never
// sees it; it goes straight to the new user by email.
func RandomPassword() string {
	out := make([]byte, 0, 8)
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			out = append(out, pick(consonants))
		} else {
			out = append(out, pick(vowels))
		}
	}
	out = append(out, pick(digits), pick(symbols))
	return string(out)
}

func pick(set string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		// crypto/rand only fails when the platform's entropy source is
		// broken; there is no sane fallback for credential material.
		panic(err)
	}
	return set[n.Int64()]
}
