package privacy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// gaussianNoise produces n independent N(0, stdDev^2) samples via the
// Box-Muller transform, consuming two uniform draws from crypto/rand per
// pair of outputs. Odd n discards the unused half of the final pair.
func gaussianNoise(n int, stdDev float64) ([]float64, error) {
	out := make([]float64, n)

	for i := 0; i < n; i += 2 {
		u1, err := secureUniform()
		if err != nil {
			return nil, err
		}
		u2, err := secureUniform()
		if err != nil {
			return nil, err
		}

		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2

		out[i] = r * math.Cos(theta) * stdDev
		if i+1 < n {
			out[i+1] = r * math.Sin(theta) * stdDev
		}
	}

	return out, nil
}

// secureUniform draws a uniform sample from (0, 1] using crypto/rand.
// The open lower bound keeps math.Log in Box-Muller finite.
func secureUniform() (float64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}

	// 53 bits of entropy, the full precision of a float64 mantissa.
	u := binary.LittleEndian.Uint64(buf[:]) >> 11

	return (float64(u) + 1) / float64(1<<53), nil
}
