package stft

import (
	"math"
	"math/cmplx"
)

// fft performs an in-place iterative radix-2 Cooley-Tukey transform.
// len(a) must be a power of two. When inverse is true, the transform is
// scaled by 1/N so that fft(fft(a, false), true) recovers a.
func fft(a []complex128, inverse bool) {
	n := len(a)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}

	for length := 2; length <= n; length <<= 1 {
		angle := sign * 2 * math.Pi / float64(length)
		wlen := cmplx.Exp(complex(0, angle))
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := a[start+k]
				v := a[start+k+half] * w
				a[start+k] = u + v
				a[start+k+half] = u - v
				w *= wlen
			}
		}
	}

	if inverse {
		for i := range a {
			a[i] /= complex(float64(n), 0)
		}
	}
}
