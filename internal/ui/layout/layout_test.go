package layout

import "testing"

func TestCalculate_WideScreen(t *testing.T) {
	l := Calculate(120, 40, false)

	if l.Compact {
		t.Error("should not be compact at 120 cols")
	}
	total := l.SeqWidth + l.MethodWidth + l.PathWidth + l.StatusWidth + l.LatencyWidth + 5*cellPadding + borderSize
	if total != 120 {
		t.Errorf("columns should fill 120 cols, got %d", total)
	}
	if l.TableHeight != 40-6 {
		t.Errorf("table height = %d, want %d", l.TableHeight, 34)
	}
}

func TestCalculate_Filtering(t *testing.T) {
	a := Calculate(120, 40, false)
	b := Calculate(120, 40, true)
	if b.TableHeight != a.TableHeight-1 {
		t.Errorf("filter line not reserved: %d vs %d", b.TableHeight, a.TableHeight)
	}
}

func TestCalculate_Compact(t *testing.T) {
	l := Calculate(50, 20, false)
	if !l.Compact {
		t.Fatal("expected compact layout at 50 cols")
	}
	if l.LatencyWidth != 0 {
		t.Errorf("latency column should be hidden, width %d", l.LatencyWidth)
	}
}

func TestCalculate_Tiny(t *testing.T) {
	l := Calculate(10, 3, true)
	if l.PathWidth != minPathWidth {
		t.Errorf("path width = %d, want %d", l.PathWidth, minPathWidth)
	}
	if l.TableHeight != 1 {
		t.Errorf("table height = %d, want 1", l.TableHeight)
	}
}
