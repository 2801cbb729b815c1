package ocrbridge

import (
	"math"
)

// edgeTolerance absorbs floating-point overshoot reported by engines for
// boxes touching the image border.
const edgeTolerance = 1e-9

// Transform maps a normalized, bottom-left-origin box to absolute pixel
// bounds with a top-left origin.
//
// The vertical axis is flipped: the top edge of the box lies at 1-y-h of the
// height measured from the top, the bottom edge at 1-y. Values are rounded
// half away from zero, clamped into [0,width] and [0,height], and swapped when
// a degenerate box would yield min > max. NaN components count as zero.
// Transform never fails.
func Transform(box NormalizedBox, width, height int) PixelBox {
	width, height = max(width, 0), max(height, 0)
	w, h := float64(width), float64(height)

	p := PixelBox{
		XMin: toPixel(box.X*w, width),
		YMin: toPixel((1.0-box.Y-box.H)*h, height),
		XMax: toPixel((box.X+box.W)*w, width),
		YMax: toPixel((1.0-box.Y)*h, height),
	}
	if p.XMin > p.XMax {
		p.XMin, p.XMax = p.XMax, p.XMin
	}
	if p.YMin > p.YMax {
		p.YMin, p.YMax = p.YMax, p.YMin
	}
	return p
}

// FromTopLeftExtent converts the normalized vertices of a polygon measured
// from the top-left corner, as most cloud engines report them, into the
// bottom-left box enclosing them. xs and ys hold the vertex coordinates
// pairwise; ok is false when there are none.
func FromTopLeftExtent(xs, ys []float64) (box NormalizedBox, ok bool) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return NormalizedBox{}, false
	}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	return NormalizedBox{X: minX, Y: 1 - maxY, W: maxX - minX, H: maxY - minY}, true
}

func toPixel(v float64, limit int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	v = math.Round(v)
	if v > float64(limit) {
		return limit
	}
	return int(v)
}

// CheckBox reports why a box would need clamping in Transform, or nil when it
// is well formed: all components finite and within [0,1], non-negative size,
// and not extending past the right or top edge.
func CheckBox(box NormalizedBox) error {
	components := []float64{box.X, box.Y, box.W, box.H}
	for _, v := range components {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &CoordinateError{Box: box, Reason: "non-finite component"}
		}
	}
	if box.W < 0 || box.H < 0 {
		return &CoordinateError{Box: box, Reason: "negative size"}
	}
	for _, v := range components {
		if v < -edgeTolerance || v > 1+edgeTolerance {
			return &CoordinateError{Box: box, Reason: "component outside [0,1]"}
		}
	}
	switch {
	case box.X+box.W > 1+edgeTolerance:
		return &CoordinateError{Box: box, Reason: "extends past the right edge"}
	case box.Y+box.H > 1+edgeTolerance:
		return &CoordinateError{Box: box, Reason: "extends past the top edge"}
	}
	return nil
}
