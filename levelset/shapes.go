package levelset

import "math"

// Plane is the affine function grad.x + c
func Plane(grad []float64, c float64) Func {
	return func(x []float64) float64 {
		v := c
		for i := range grad {
			v += grad[i] * x[i]
		}
		return v
	}
}

// Sphere is the signed distance to a sphere, negative inside
func Sphere(center []float64, radius float64) Func {
	return func(x []float64) float64 {
		var d2 float64
		for i := range center {
			d := x[i] - center[i]
			d2 += d * d
		}
		return math.Sqrt(d2) - radius
	}
}

// Translate moves a static level set with constant velocity:
// phi(x, t) = f(x - velocity*t)
func Translate(f Func, velocity []float64) SpaceTimeFunc {
	return func(x []float64, t float64) float64 {
		y := make([]float64, len(x))
		for i := range x {
			y[i] = x[i]
			if i < len(velocity) {
				y[i] -= velocity[i] * t
			}
		}
		return f(y)
	}
}

// MovingSphere is a sphere whose center moves as center + velocity*t
func MovingSphere(center, velocity []float64, radius float64) SpaceTimeFunc {
	return Translate(Sphere(center, radius), velocity)
}

// Steady lifts a static level set to space-time
func Steady(f Func) SpaceTimeFunc {
	return func(x []float64, _ float64) float64 { return f(x) }
}
