// Package analysis offers frequency-domain views of recorded history
// series, used by the analyze command to find breathing rhythms in the
// substrate and field means.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes a radix-2 Cooley-Tukey transform. The input length must
// be a power of two; use Pad first for arbitrary series.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// Pad zero-extends data to the next power of two with its mean removed,
// so the DC bin does not drown the spectrum of a small-amplitude series.
func Pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}

	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}
	return padded
}

// PowerSpectrum returns the magnitude of each positive-frequency bin.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantPeriod finds the strongest non-DC bin of a series and returns
// its period in steps, with the spectrum used to find it. A period of 0
// means the series was too short or flat to call.
func DominantPeriod(series []float64) (float64, []float64) {
	if len(series) < 4 {
		return 0, nil
	}

	ps := PowerSpectrum(Pad(series))

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 {
		return 0, ps
	}

	n := float64(len(ps) * 2)
	return n / float64(maxIdx), ps
}
