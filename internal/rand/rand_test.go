package rand

import (
	"strings"
	"testing"
)

func TestAlphanumString(t *testing.T) {
	s := AlphanumString(32)
	if len(s) != 32 {
		t.Fatalf("len %d - expected 32", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(csAlphanum, c) {
			t.Fatalf("unexpected character %q in %s", c, s)
		}
	}
	if AlphanumString(32) == s {
		t.Fatal("two random strings are equal")
	}
}
