package effects

const (
	maxBlurRadius  = 20.0  // px at full strength
	maxRotationDeg = 360.0 // one full turn at full strength
	maxShakeOffset = 30.0  // px jitter amplitude at full strength
	maxZoomDelta   = 1.0   // scale grows to 2x at full strength
)

// Transform is the composed presentational state produced by the active
// effects of a single frame. Fields are in render units, not percentages.
type Transform struct {
	Dim      float64 // fade-to-black alpha, 0..1
	Blur     float64 // blur radius, px
	Rotation float64 // degrees
	Shake    float64 // jitter amplitude, px
	Zoom     float64 // scale factor, 1 = none
	Invert   float64 // color inversion amount, 0..1
}

// Compose applies the active effects in order into a single transform.
// Order matters for stacking: fades and inversions clamp, blur/rotation/shake
// accumulate, zoom compounds multiplicatively.
func Compose(actives []Active) Transform {
	tr := Transform{Zoom: 1}
	for _, a := range actives {
		switch a.Effect.Type {
		case TypeFade:
			tr.Dim += a.Value
			if tr.Dim > 1 {
				tr.Dim = 1
			}
		case TypeBlur:
			tr.Blur += a.Value * maxBlurRadius
		case TypeRotate:
			tr.Rotation += a.Value * maxRotationDeg
		case TypeShake:
			tr.Shake += a.Value * maxShakeOffset
		case TypeZoom:
			tr.Zoom *= 1 + a.Value*maxZoomDelta
		case TypeInvert:
			tr.Invert += a.Value
			if tr.Invert > 1 {
				tr.Invert = 1
			}
		}
	}
	return tr
}

// At is the per-frame entry point: resolve then compose.
func At(list []Effect, t float64) Transform {
	return Compose(ActiveAt(list, t))
}
