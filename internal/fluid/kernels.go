package fluid

import "math"

// Kernels precomputes the normalization constants of the smoothing kernels
// for a given radius h. The constants depend only on h, so a Kernels value is
// rebuilt whenever the configured radius changes and is read-only afterwards.
// Every kernel returns 0 outside its support radius.
type Kernels struct {
	h             float64
	spikyPow2     float64 // 15 / (2π h^5)
	spikyPow3     float64 // 15 / (π h^6)
	spikyPow2Grad float64 // 15 / (π h^5)
	spikyPow3Grad float64 // 45 / (π h^6)
	poly6         float64 // 315 / (64π h^9)
}

// NewKernels computes the kernel constants for smoothing radius h.
func NewKernels(h float64) Kernels {
	return Kernels{
		h:             h,
		spikyPow2:     15 / (2 * math.Pi * math.Pow(h, 5)),
		spikyPow3:     15 / (math.Pi * math.Pow(h, 6)),
		spikyPow2Grad: 15 / (math.Pi * math.Pow(h, 5)),
		spikyPow3Grad: 45 / (math.Pi * math.Pow(h, 6)),
		poly6:         315 / (64 * math.Pi * math.Pow(h, 9)),
	}
}

// Radius returns the smoothing radius the constants were built for.
func (k Kernels) Radius() float64 { return k.h }

// Density is the spiky² density kernel: (h-d)² · 15/(2π h⁵) for d < h.
func (k Kernels) Density(d float64) float64 {
	if d < k.h {
		v := k.h - d
		return v * v * k.spikyPow2
	}
	return 0
}

// NearDensity is the steeper spiky³ kernel used to prevent clustering.
func (k Kernels) NearDensity(d float64) float64 {
	if d < k.h {
		v := k.h - d
		return v * v * v * k.spikyPow3
	}
	return 0
}

// DensityDerivative is the radial derivative of the spiky² kernel.
func (k Kernels) DensityDerivative(d float64) float64 {
	if d <= k.h {
		return -(k.h - d) * k.spikyPow2Grad
	}
	return 0
}

// NearDensityDerivative is the radial derivative of the spiky³ kernel.
func (k Kernels) NearDensityDerivative(d float64) float64 {
	if d <= k.h {
		v := k.h - d
		return -v * v * k.spikyPow3Grad
	}
	return 0
}

// Poly6 is the smooth bell kernel used for viscosity weighting.
func (k Kernels) Poly6(d float64) float64 {
	if d < k.h {
		v := k.h*k.h - d*d
		return v * v * v * k.poly6
	}
	return 0
}
