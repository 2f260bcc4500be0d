package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// randIndex returns a uniform random index in [0, n) from crypto/rand.
// Randomness here must be unpredictable to a client watching traffic; a
// seeded PRNG would let the spy or location be inferred.
func randIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// nothing sensible to fall back to.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return int(v.Int64())
}

// choose returns a uniform random element of items.
func choose[T any](items []T) T {
	return items[randIndex(len(items))]
}

// shuffle permutes items in place with a Fisher-Yates shuffle backed by
// crypto/rand.
func shuffle[T any](items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// newSessionToken returns a 256-bit hex-encoded session token.
func newSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}
