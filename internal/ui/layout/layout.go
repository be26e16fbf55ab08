package layout

// PanelLayout holds calculated dimensions for the request table panel.
type PanelLayout struct {
	Width  int
	Height int

	// Column widths, without cell padding.
	SeqWidth     int
	MethodWidth  int
	PathWidth    int
	StatusWidth  int
	LatencyWidth int

	TableHeight int // visible body rows
	Compact     bool
}

const (
	titleHeight     = 1
	filterHeight    = 1
	statusBarHeight = 1
	borderSize      = 2
	tableHeader     = 2
	cellPadding     = 2
	minPathWidth    = 10
	compactWidth    = 60
)

// Calculate computes the layout from terminal dimensions. When filtering, a
// line is reserved for the filter input.
func Calculate(width, height int, filtering bool) PanelLayout {
	l := PanelLayout{
		Width:        width,
		Height:       height,
		SeqWidth:     5,
		MethodWidth:  7,
		StatusWidth:  6,
		LatencyWidth: 9,
		Compact:      width < compactWidth,
	}

	cols := 5
	fixed := l.SeqWidth + l.MethodWidth + l.StatusWidth + l.LatencyWidth
	if l.Compact {
		l.LatencyWidth = 0
		cols = 4
		fixed = l.SeqWidth + l.MethodWidth + l.StatusWidth
	}
	l.PathWidth = width - borderSize - fixed - cols*cellPadding
	if l.PathWidth < minPathWidth {
		l.PathWidth = minPathWidth
	}

	chrome := titleHeight + statusBarHeight + borderSize + tableHeader
	if filtering {
		chrome += filterHeight
	}
	l.TableHeight = height - chrome
	if l.TableHeight < 1 {
		l.TableHeight = 1
	}
	return l
}
