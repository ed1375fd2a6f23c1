package layout

import (
	"math"
	"testing"

	"github.com/georgepadayatti/littlebook/pdf/generic"
)

const tolerance = 0.0001

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func pointEqual(a, b Point) bool {
	return floatEqual(a.X, b.X) && floatEqual(a.Y, b.Y)
}

// Unit tests

func TestToPoints(t *testing.T) {
	tests := []struct {
		value    float64
		unit     Unit
		expected float64
	}{
		{1, Pt, 1},
		{1, In, 72},
		{2.54, Cm, 72},
		{25.4, Mm, 72},
	}

	for _, tt := range tests {
		result := ToPoints(tt.value, tt.unit)
		if !floatEqual(result, tt.expected) {
			t.Errorf("ToPoints(%v, %v) = %v, want %v", tt.value, tt.unit, result, tt.expected)
		}
	}
}

func TestFromPoints(t *testing.T) {
	if got := FromPoints(72, In); !floatEqual(got, 1) {
		t.Errorf("FromPoints(72, In) = %v, want 1", got)
	}
	if got := FromPoints(72, Mm); !floatEqual(got, 25.4) {
		t.Errorf("FromPoints(72, Mm) = %v, want 25.4", got)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"12", 12},
		{"12pt", 12},
		{" 0.5in ", 36},
		{"25.4mm", 72},
		{"2.54 cm", 72},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseLength(tt.input)
		if err != nil {
			t.Fatalf("ParseLength(%q) failed: %v", tt.input, err)
		}
		if !floatEqual(got, tt.expected) {
			t.Errorf("ParseLength(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}

	for _, bad := range []string{"", "mm", "ten", "NaN", "3furlongs"} {
		if _, err := ParseLength(bad); err == nil {
			t.Errorf("ParseLength(%q) should fail", bad)
		}
	}
}

// PageSize tests

func TestPageSizeLandscape(t *testing.T) {
	land := A4.Landscape()
	if land.Width != 842 || land.Height != 595 {
		t.Errorf("A4.Landscape() = %v, want 842x595", land)
	}
	if !land.IsLandscape() || A4.IsLandscape() {
		t.Error("IsLandscape mismatch")
	}
	if land.Landscape() != land {
		t.Error("Landscape of a landscape size should be unchanged")
	}
}

func TestPageSizeName(t *testing.T) {
	tests := []struct {
		size     PageSize
		expected string
	}{
		{A5, "A5"},
		{A5.Landscape(), "A5"},
		{PageSize{595.28, 841.89}, "A4"},
		{Letter, "Letter"},
		{PageSize{100, 100}, ""},
	}
	for _, tt := range tests {
		if got := tt.size.Name(); got != tt.expected {
			t.Errorf("%v.Name() = %q, want %q", tt.size, got, tt.expected)
		}
	}

	if got := A4.String(); got != "A4 (595x842pt)" {
		t.Errorf("A4.String() = %q", got)
	}
	if got := (PageSize{100.5, 200}).String(); got != "100.5x200pt" {
		t.Errorf("String() = %q", got)
	}
}

func TestPageSizeScale(t *testing.T) {
	if got := A4.Scale(0.5); got.Width != 297.5 || got.Height != 421 {
		t.Errorf("A4.Scale(0.5) = %v", got)
	}
}

// Rectangle tests

func TestFromMediaBox(t *testing.T) {
	box, _ := generic.NewRectangle(generic.NumberArray(10, 20, 110, 220))
	r := FromMediaBox(box)
	if r.X != 10 || r.Y != 20 || r.Width != 100 || r.Height != 200 {
		t.Errorf("FromMediaBox = %+v", r)
	}
	if r.Right() != 110 || r.Top() != 220 {
		t.Errorf("edges = %v,%v, want 110,220", r.Right(), r.Top())
	}
}

func TestRectangleContainsRect(t *testing.T) {
	outer := NewRectangle(0, 0, 100, 100)
	tests := []struct {
		name     string
		inner    Rectangle
		expected bool
	}{
		{"inside", NewRectangle(10, 10, 50, 50), true},
		{"equal", outer, true},
		{"within tolerance", NewRectangle(-0.005, 0, 100.005, 100), true},
		{"overhang", NewRectangle(60, 60, 50, 50), false},
	}
	for _, tt := range tests {
		if got := outer.ContainsRect(tt.inner, 0.01); got != tt.expected {
			t.Errorf("%s: ContainsRect = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestRectangleIntersects(t *testing.T) {
	a := NewRectangle(0, 0, 100, 100)
	tests := []struct {
		name     string
		other    Rectangle
		expected bool
	}{
		{"overlap", NewRectangle(50, 50, 100, 100), true},
		{"shared edge", NewRectangle(100, 0, 100, 100), false},
		{"disjoint", NewRectangle(200, 200, 10, 10), false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.other, 0.01); got != tt.expected {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

// Transform tests

func TestRotateDegExact(t *testing.T) {
	tests := []struct {
		angle    float64
		expected Transform
	}{
		{0, Identity()},
		{90, Transform{0, 1, -1, 0, 0, 0}},
		{-270, Transform{0, 1, -1, 0, 0, 0}},
		{180, Transform{-1, 0, 0, -1, 0, 0}},
		{270, Transform{0, -1, 1, 0, 0, 0}},
		{450, Transform{0, 1, -1, 0, 0, 0}},
	}
	for _, tt := range tests {
		if got := RotateDeg(tt.angle); got != tt.expected {
			t.Errorf("RotateDeg(%v) = %+v, want %+v", tt.angle, got, tt.expected)
		}
	}

	p := RotateDeg(45).Apply(NewPoint(1, 0))
	if !pointEqual(p, NewPoint(math.Sqrt2/2, math.Sqrt2/2)) {
		t.Errorf("RotateDeg(45) moved (1,0) to %v", p)
	}
}

func TestTransformMultiplyOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(10, 0).Multiply(ScaleTransform(2, 2))
	if got := m.Apply(NewPoint(1, 1)); !pointEqual(got, NewPoint(12, 2)) {
		t.Errorf("Translate·Scale applied to (1,1) = %v, want (12,2)", got)
	}

	m = ScaleTransform(2, 2).Multiply(Translate(10, 0))
	if got := m.Apply(NewPoint(1, 1)); !pointEqual(got, NewPoint(22, 2)) {
		t.Errorf("Scale·Translate applied to (1,1) = %v, want (22,2)", got)
	}
}

func TestTransformChainPlacesRotatedPage(t *testing.T) {
	// A 100x200 page rotated a quarter turn and moved right by its height
	// lands in [0,0]-[200,100].
	m := Translate(200, 0).Multiply(RotateDeg(90))
	got := m.ApplyRect(NewRectangle(0, 0, 100, 200))
	want := NewRectangle(0, 0, 200, 100)
	if !floatEqual(got.X, want.X) || !floatEqual(got.Y, want.Y) ||
		!floatEqual(got.Width, want.Width) || !floatEqual(got.Height, want.Height) {
		t.Errorf("ApplyRect = %+v, want %+v", got, want)
	}
}

func TestTransformToPDFOperator(t *testing.T) {
	tests := []struct {
		tr       Transform
		expected string
	}{
		{Identity(), "1 0 0 1 0 0 cm"},
		{Transform{0, 0.5, -0.5, 0, 421.5, 36}, "0 0.5 -0.5 0 421.5 36 cm"},
		{Translate(-0.000001, 1.0/3), "1 0 0 1 0 0.33333 cm"},
	}
	for _, tt := range tests {
		if got := tt.tr.ToPDFOperator(); got != tt.expected {
			t.Errorf("ToPDFOperator() = %q, want %q", got, tt.expected)
		}
	}
}
