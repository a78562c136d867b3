// Package rand implements functions for randomized content.
package rand

import "crypto/rand"

// alphanumeric character set.
const csAlphanum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// AlphanumString returns a random string of n alphanumeric characters and
// panics if the crypto random reader returns an error.
func AlphanumString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // rand should never fail
	}
	for i, c := range b {
		b[i] = csAlphanum[int(c)%len(csAlphanum)]
	}
	return string(b)
}
