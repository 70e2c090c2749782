package mapview

const highlightSymbol = '◉'

type CellKind int

const (
	CellEmpty CellKind = iota
	CellGraphic
	CellHighlight
	CellLabel
)

type Cell struct {
	Rune rune
	Kind CellKind
}

// Raster is the canvas as rows of cells, ready for styling by the renderer.
type Raster [][]Cell

// Rasterize draws every layer bottom-up. Highlighted graphics use the
// highlight symbol; labels are written right of their marker where the
// cells are still free.
func (v *View) Rasterize() Raster {
	width, height := v.Size()
	r := make(Raster, height)
	for y := range r {
		r[y] = make([]Cell, width)
		for x := range r[y] {
			r[y][x] = Cell{Rune: ' '}
		}
	}

	type pendingLabel struct {
		at   ScreenPoint
		text string
	}
	var labels []pendingLabel

	scale := v.Scale()
	for _, lv := range v.Layers() {
		if !lv.VisibleAt(scale) {
			continue
		}
		symbol := lv.Symbol()
		labeling := lv.Labeling()
		for _, g := range lv.Graphics() {
			sp, ok := v.ToScreen(g.Geometry)
			if !ok {
				continue
			}
			cell := Cell{Rune: symbol, Kind: CellGraphic}
			if lv.IsHighlighted(g.ObjectID) {
				cell = Cell{Rune: highlightSymbol, Kind: CellHighlight}
			}
			r[sp.Y][sp.X] = cell
			if labeling.Visible {
				if text := labeling.Label(g); text != "" {
					labels = append(labels, pendingLabel{at: sp, text: text})
				}
			}
		}
	}

	for _, l := range labels {
		row := r[l.at.Y]
		x := l.at.X + 2
		for _, ch := range l.text {
			if x >= len(row) || row[x].Kind != CellEmpty {
				break
			}
			row[x] = Cell{Rune: ch, Kind: CellLabel}
			x++
		}
	}
	return r
}
