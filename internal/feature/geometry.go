package feature

import "math"

// WebMercator is the spatial reference every extent in the app is kept in.
const WebMercator = 3857

// Point is an x/y pair in map units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Extent is an axis-aligned bounding box in map units.
type Extent struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
	WKID int     `json:"-"`
}

func (e Extent) Width() float64  { return e.XMax - e.XMin }
func (e Extent) Height() float64 { return e.YMax - e.YMin }

func (e Extent) IsEmpty() bool {
	return e.Width() <= 0 || e.Height() <= 0 || math.IsNaN(e.Width()) || math.IsNaN(e.Height())
}

func (e Extent) Center() Point {
	return Point{X: (e.XMin + e.XMax) / 2, Y: (e.YMin + e.YMax) / 2}
}

func (e Extent) Contains(p Point) bool {
	return p.X >= e.XMin && p.X <= e.XMax && p.Y >= e.YMin && p.Y <= e.YMax
}

// CenteredAt returns an extent of the given size around c.
func CenteredAt(c Point, width, height float64) Extent {
	return Extent{
		XMin: c.X - width/2,
		YMin: c.Y - height/2,
		XMax: c.X + width/2,
		YMax: c.Y + height/2,
		WKID: WebMercator,
	}
}

// ExtentOf returns the bounding box of pts. A single point yields a
// zero-area extent; no points yields the zero Extent.
func ExtentOf(pts ...Point) Extent {
	if len(pts) == 0 {
		return Extent{}
	}
	e := Extent{XMin: pts[0].X, YMin: pts[0].Y, XMax: pts[0].X, YMax: pts[0].Y, WKID: WebMercator}
	for _, p := range pts[1:] {
		e.XMin = math.Min(e.XMin, p.X)
		e.YMin = math.Min(e.YMin, p.Y)
		e.XMax = math.Max(e.XMax, p.X)
		e.YMax = math.Max(e.YMax, p.Y)
	}
	return e
}

func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
