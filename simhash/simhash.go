// Package simhash fingerprints product pages so a page session can tell a
// real re-render from a no-op mutation signal.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint is the 64-bit SimHash of the whitespace-separated words of
// text, each word hashed with FNV-64a. Blank text yields 0.
func Fingerprint(text string) uint64 {
	return fingerprintTokens(strings.Fields(text))
}

func fingerprintTokens(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var weights [64]int
	h := fnv.New64a()
	for _, tok := range tokens {
		h.Reset()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for bit := range 64 {
			if sum&(1<<bit) != 0 {
				weights[bit]++
			} else {
				weights[bit]--
			}
		}
	}

	var fp uint64
	for bit, w := range weights {
		if w > 0 {
			fp |= 1 << bit
		}
	}
	return fp
}

// Distance is the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether a and b are at most threshold bits apart.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
