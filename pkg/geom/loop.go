package geom

import "math"

// Loop is a closed polygon. The closing edge from the last point back to the
// first is implicit; the first point is not repeated.
type Loop []Point

// SignedArea returns the shoelace area. Positive means counter-clockwise.
func (l Loop) SignedArea() float64 {
	n := len(l)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		p, q := l[i], l[(i+1)%n]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// Area returns the absolute enclosed area.
func (l Loop) Area() float64 {
	return math.Abs(l.SignedArea())
}

// IsCCW reports whether the loop winds counter-clockwise.
func (l Loop) IsCCW() bool {
	return l.SignedArea() > 0
}

// Reversed returns a copy of l with the opposite winding.
func (l Loop) Reversed() Loop {
	out := make(Loop, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

// WithWinding returns l, or its reversal, so that it winds counter-clockwise
// when ccw is true and clockwise otherwise.
func (l Loop) WithWinding(ccw bool) Loop {
	if l.IsCCW() == ccw {
		return l
	}
	return l.Reversed()
}

// Contains reports whether p lies strictly inside l using the even-odd rule.
// Points exactly on an edge may report either result.
func (l Loop) Contains(p Point) bool {
	inside := false
	n := len(l)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := l[i], l[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Perimeter returns the length of the closed boundary.
func (l Loop) Perimeter() float64 {
	var sum float64
	for i := range l {
		sum += Dist(l[i], l[(i+1)%len(l)])
	}
	return sum
}

// Bounds returns the 2D extent of the loop.
func (l Loop) Bounds() Rect {
	r := EmptyRect()
	for _, p := range l {
		r = r.Extend(p)
	}
	return r
}

// Closed returns the loop's points with the first point appended at the end,
// the form a tool traverses.
func (l Loop) Closed() []Point {
	if len(l) == 0 {
		return nil
	}
	out := make([]Point, 0, len(l)+1)
	out = append(out, l...)
	return append(out, l[0])
}

// Rectangle returns the counter-clockwise loop of the axis-aligned rectangle
// with the given corners.
func Rectangle(x0, y0, x1, y1 float64) Loop {
	return Loop{Pt(x0, y0), Pt(x1, y0), Pt(x1, y1), Pt(x0, y1)}
}
