// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 helpers used to size and index
the analysis ring buffers. Every function is allocation free and safe
to call from an audio callback.

Usage:

	// Round a requested analyser size up to a valid FFT size
	size := bitint.NextPowerOfTwo(1000) // 1024

	// Wrap a monotonically increasing write cursor into the ring
	mask := bitint.Mask(size)
	slot := cursor & mask
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Subtracting 1 first keeps exact powers of 2 unchanged.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of 2 has a single bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns log2(n) for a power of 2 n, and -1 otherwise.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}

// Mask returns size-1 for use as a wrap-around index mask. size is
// rounded up to a power of 2 first.
func Mask(size int) int {
	return NextPowerOfTwo(size) - 1
}
