package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/georgepadayatti/littlebook/pdf/generic"
	"github.com/georgepadayatti/littlebook/pdf/layout"
)

func TestContentBuilderPlacement(t *testing.T) {
	m := layout.Translate(421.5, 36).Multiply(layout.RotateDeg(90)).Multiply(layout.ScaleTransform(0.5, 0.5))
	got := string(NewContentBuilder().
		SaveState().
		Transform(m).
		PaintXObject("P0").
		RestoreState().
		Render())

	want := "q\n0 0.5 -0.5 0 421.5 36 cm\n/P0 Do\nQ\n"
	if got != want {
		t.Errorf("Render() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestContentStreamAddOperation(t *testing.T) {
	cs := NewContentStream()
	cs.AddOperation(OpSaveState)
	cs.AddOperation(OpPaintXObject, generic.NameObject("Im1"))
	cs.AddOperation(OpRestoreState)

	if len(cs.Operations) != 3 {
		t.Fatalf("Expected 3 operations, got %d", len(cs.Operations))
	}
	if cs.Operations[1].Operator != OpPaintXObject {
		t.Errorf("Expected Do, got %s", cs.Operations[1].Operator)
	}
}

func TestParse(t *testing.T) {
	data := []byte("% comment\nq 1 0 0 1 10.5 -3 cm /P0 Do Q\nBT /F1 12 Tf (a (nested) b) Tj [(x) -250 (y)] TJ ET\n1 0 0 RG 0 g T*")
	cs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var ops []Operator
	for _, op := range cs.Operations {
		ops = append(ops, op.Operator)
	}
	want := []Operator{"q", "cm", "Do", "Q", "BT", "Tf", "Tj", "TJ", "ET", "RG", "g", "T*"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("operators mismatch (-want +got):\n%s", diff)
	}

	cm := cs.Operations[1].Operands
	if len(cm) != 6 {
		t.Fatalf("Expected 6 cm operands, got %d", len(cm))
	}
	if v, _ := generic.Number(cm[4]); v != 10.5 {
		t.Errorf("Expected e = 10.5, got %v", v)
	}
	if name, ok := cs.Operations[2].Operands[0].(generic.NameObject); !ok || name != "P0" {
		t.Errorf("Expected /P0 operand, got %v", cs.Operations[2].Operands)
	}
	if s, ok := cs.Operations[6].Operands[0].(*generic.StringObject); !ok || string(s.Value) != "a (nested) b" {
		t.Errorf("Expected nested string operand, got %v", cs.Operations[6].Operands)
	}
}

func TestParseInlineImage(t *testing.T) {
	cs, err := Parse([]byte("q BI /W 1 /H 1 /BPC 8 /CS /G ID \x00\xff EI Q"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var ops []Operator
	for _, op := range cs.Operations {
		ops = append(ops, op.Operator)
	}
	want := []Operator{"q", "BI", "ID", "EI", "Q"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("operators mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"dangling operands", "1 0 0 1 0 0"},
		{"stray delimiter", "q ) Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	src := NewContentBuilder().SaveState().Transform(layout.Translate(1, 2)).PaintXObject("P3").RestoreState().Render()
	cs, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := string(cs.Render()); got != string(src) {
		t.Errorf("Expected %q, got %q", src, got)
	}
}
