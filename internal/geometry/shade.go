package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Shades at or above fullShade render black.
const fullShade = 30

// ShadeColor approximates the palette shading of a Build shade value as a
// linear RGBA color.
func ShadeColor(shade int) mgl64.Vec4 {
	if shade <= 0 {
		return mgl64.Vec4{1, 1, 1, 1}
	}
	if shade >= fullShade {
		return mgl64.Vec4{0, 0, 0, 1}
	}
	s := float64(shade)
	return mgl64.Vec4{
		clamp(-0.000432*s*s-0.021012*s+0.986183, 0, 1),
		clamp(-0.000256*s*s-0.025906*s+0.980335, 0, 1),
		clamp(-0.000288*s*s-0.025329*s+0.991496, 0, 1),
		1,
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
