package rules

import (
	"math/rand"
	"testing"
)

func newSeededRand(t *testing.T, seed int64) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewSource(seed))
}
