// Package effects resolves which visual effects are live at a given elapsed
// time and with what interpolated strength. It is a read-only consumer of the
// playback clock; rendering itself happens elsewhere.
package effects

type Type string

const (
	TypeFade   Type = "fade"
	TypeBlur   Type = "blur"
	TypeRotate Type = "rotate"
	TypeShake  Type = "shake"
	TypeZoom   Type = "zoom"
	TypeInvert Type = "invert"
)

type Easing string

const (
	EaseLinear Easing = "linear"
	EaseIn     Easing = "easeIn"
	EaseOut    Easing = "easeOut"
	EaseInOut  Easing = "easeInOut"
)

// Effect is one time-indexed entry from a beatmap's effect list.
// Intensity is a percentage in [0,100].
type Effect struct {
	ID        int
	Type      Type
	StartTime float64
	Duration  float64
	Intensity float64
	Easing    Easing
}

// Active is an effect resolved at a point in time. Value is the effect's
// working strength in [0,1]: intensity/100 scaled by eased progress.
type Active struct {
	Effect   Effect
	Progress float64
	Value    float64
}

// Ease applies a quadratic easing curve to a progress value in [0,1].
func Ease(p float64, e Easing) float64 {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	switch e {
	case EaseIn:
		return p * p
	case EaseOut:
		return 1 - (1-p)*(1-p)
	case EaseInOut:
		if p < 0.5 {
			return 2 * p * p
		}
		q := -2*p + 2
		return 1 - q*q/2
	default:
		return p
	}
}

// ActiveAt resolves the effects live at elapsed time t, in declaration order.
// An effect is live on the closed interval [start, start+duration].
func ActiveAt(list []Effect, t float64) []Active {
	var out []Active
	for _, e := range list {
		if e.Duration <= 0 {
			continue
		}
		if t < e.StartTime || t > e.StartTime+e.Duration {
			continue
		}
		p := (t - e.StartTime) / e.Duration
		v := e.Intensity / 100 * Ease(p, e.Easing)
		out = append(out, Active{Effect: e, Progress: p, Value: v})
	}
	return out
}
