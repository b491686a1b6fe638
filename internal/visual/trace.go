// SPDX-License-Identifier: MIT

// Package visual samples the Tap once per display frame and turns the
// time-domain block into a polyline for whatever renderer is attached.
package visual

// Point is a vertex of the trace in surface coordinates, y pointing down.
type Point struct {
	X, Y float64
}

// Trace is one rendered frame.
type Trace struct {
	Points []Point
	Color  string
	Width  int
	Height int
}

// Polyline maps byte samples (128 = silence) onto a w x h surface: sample i
// sits at x = i*w/n, y = (v/128)*h/2, and the line ends at the right edge
// on the centre line. The result reuses dst's storage.
func Polyline(samples []byte, w, h int, dst []Point) []Point {
	dst = dst[:0]
	n := len(samples)
	if n == 0 || w <= 0 || h <= 0 {
		return dst
	}

	slice := float64(w) / float64(n)
	half := float64(h) / 2
	x := 0.0
	for _, s := range samples {
		v := float64(s) / 128.0
		dst = append(dst, Point{X: x, Y: v * half})
		x += slice
	}
	return append(dst, Point{X: float64(w), Y: half})
}
