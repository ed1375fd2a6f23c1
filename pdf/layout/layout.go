// Package layout provides page geometry and affine transforms for placing
// pages on sheets.
package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// Unit represents a measurement unit.
type Unit float64

const (
	// Points - the base PDF unit (1/72 inch)
	Pt Unit = 1
	// Inches
	In Unit = 72
	// Centimeters
	Cm Unit = 72 / 2.54
	// Millimeters
	Mm Unit = 72 / 25.4
)

// ToPoints converts a value in the given unit to points.
func ToPoints(value float64, unit Unit) float64 {
	return value * float64(unit)
}

// FromPoints converts points to the given unit.
func FromPoints(points float64, unit Unit) float64 {
	return points / float64(unit)
}

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	{"pt", Pt},
	{"in", In},
	{"cm", Cm},
	{"mm", Mm},
}

// ParseLength parses a length such as "12", "12pt", "5mm" or "0.25in" and
// returns it in points. A bare number is taken as points.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	unit := Pt
	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			unit = u.unit
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	return ToPoints(v, unit), nil
}

// PageSize represents page dimensions in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes in points
var (
	A3     = PageSize{842, 1191}
	A4     = PageSize{595, 842}
	A5     = PageSize{420, 595}
	A6     = PageSize{298, 420}
	Letter = PageSize{612, 792}
	Legal  = PageSize{612, 1008}
)

var standardSizes = []struct {
	name string
	size PageSize
}{
	{"A3", A3},
	{"A4", A4},
	{"A5", A5},
	{"A6", A6},
	{"Letter", Letter},
	{"Legal", Legal},
}

// Landscape returns the page size in landscape orientation.
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		return PageSize{p.Height, p.Width}
	}
	return p
}

// IsLandscape returns true if width > height.
func (p PageSize) IsLandscape() bool {
	return p.Width > p.Height
}

// Scale returns a scaled page size.
func (p PageSize) Scale(factor float64) PageSize {
	return PageSize{
		Width:  p.Width * factor,
		Height: p.Height * factor,
	}
}

// Name returns the name of the standard size within 1pt of p in either
// orientation, or "" when none matches.
func (p PageSize) Name() string {
	for _, s := range standardSizes {
		for _, o := range []PageSize{s.size, s.size.Landscape()} {
			if math.Abs(o.Width-p.Width) <= 1 && math.Abs(o.Height-p.Height) <= 1 {
				return s.name
			}
		}
	}
	return ""
}

func (p PageSize) String() string {
	dims := fmt.Sprintf("%sx%spt", generic.FormatNumber(p.Width), generic.FormatNumber(p.Height))
	if name := p.Name(); name != "" {
		return name + " (" + dims + ")"
	}
	return dims
}

// Point represents a 2D point.
type Point struct {
	X, Y float64
}

// NewPoint creates a new point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Rectangle represents a rectangle with origin at bottom-left (PDF coordinates).
type Rectangle struct {
	X, Y          float64 // Bottom-left corner
	Width, Height float64
}

// NewRectangle creates a new rectangle.
func NewRectangle(x, y, width, height float64) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// FromMediaBox creates a rectangle from a PDF box.
func FromMediaBox(box *generic.Rectangle) Rectangle {
	return Rectangle{X: box.LLX, Y: box.LLY, Width: box.Width(), Height: box.Height()}
}

// Right returns the right edge X coordinate.
func (r Rectangle) Right() float64 { return r.X + r.Width }

// Top returns the top edge Y coordinate.
func (r Rectangle) Top() float64 { return r.Y + r.Height }

// ContainsRect reports whether other lies inside r, allowing tol points of
// slack on each edge.
func (r Rectangle) ContainsRect(other Rectangle, tol float64) bool {
	return other.X >= r.X-tol && other.Y >= r.Y-tol &&
		other.Right() <= r.Right()+tol && other.Top() <= r.Top()+tol
}

// Intersects reports whether the interiors of r and other overlap by more
// than tol points.
func (r Rectangle) Intersects(other Rectangle, tol float64) bool {
	return r.X < other.Right()-tol && other.X < r.Right()-tol &&
		r.Y < other.Top()-tol && other.Y < r.Top()-tol
}

// Transform is a 2D affine matrix [A B C D E F], as used by the PDF cm
// operator: x' = A·x + C·y + E, y' = B·x + D·y + F.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{1, 0, 0, 1, 0, 0}
}

// Translate creates a translation transform.
func Translate(dx, dy float64) Transform {
	return Transform{1, 0, 0, 1, dx, dy}
}

// ScaleTransform creates a scale transform.
func ScaleTransform(sx, sy float64) Transform {
	return Transform{sx, 0, 0, sy, 0, 0}
}

// Rotate creates a counter-clockwise rotation (angle in radians).
func Rotate(angle float64) Transform {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Transform{cos, sin, -sin, cos, 0, 0}
}

// RotateDeg creates a counter-clockwise rotation in degrees. Multiples of
// 90 produce exact matrices.
func RotateDeg(angle float64) Transform {
	switch math.Mod(math.Mod(angle, 360)+360, 360) {
	case 0:
		return Identity()
	case 90:
		return Transform{0, 1, -1, 0, 0, 0}
	case 180:
		return Transform{-1, 0, 0, -1, 0, 0}
	case 270:
		return Transform{0, -1, 1, 0, 0, 0}
	}
	return Rotate(angle * math.Pi / 180)
}

// Multiply returns t·other: the result applies other first, then t.
func (t Transform) Multiply(other Transform) Transform {
	return Transform{
		A: t.A*other.A + t.C*other.B,
		B: t.B*other.A + t.D*other.B,
		C: t.A*other.C + t.C*other.D,
		D: t.B*other.C + t.D*other.D,
		E: t.A*other.E + t.C*other.F + t.E,
		F: t.B*other.E + t.D*other.F + t.F,
	}
}

// Apply applies the transform to a point.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// ApplyRect applies the transform to a rectangle (returns bounding box).
func (t Transform) ApplyRect(r Rectangle) Rectangle {
	corners := []Point{
		{r.X, r.Y},
		{r.Right(), r.Y},
		{r.X, r.Top()},
		{r.Right(), r.Top()},
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, corner := range corners {
		p := t.Apply(corner)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Operands returns the six matrix entries as content stream numbers.
func (t Transform) Operands() []string {
	out := make([]string, 6)
	for i, v := range []float64{t.A, t.B, t.C, t.D, t.E, t.F} {
		out[i] = generic.FormatNumber(v)
	}
	return out
}

// ToPDFOperator returns the PDF content stream operator.
func (t Transform) ToPDFOperator() string {
	return strings.Join(t.Operands(), " ") + " cm"
}
