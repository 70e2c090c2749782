package arcgis

import (
	"fmt"
	"os"

	"github.com/marcozac/go-jsonc"

	"github.com/covgis/meters/internal/feature"
)

// WebMap is the Web_Map_as_JSON document sent to the print task.
type WebMap struct {
	MapOptions        MapOptions         `json:"mapOptions"`
	OperationalLayers []OperationalLayer `json:"operationalLayers"`
	BaseMap           *BaseMap           `json:"baseMap,omitempty"`
	ExportOptions     ExportOptions      `json:"exportOptions"`
	LayoutOptions     LayoutOptions      `json:"layoutOptions"`
}

type MapOptions struct {
	Extent extentJSON `json:"extent"`
	Scale  float64    `json:"scale,omitempty"`
}

type OperationalLayer struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Opacity float64 `json:"opacity"`
}

type BaseMap struct {
	Title         string             `json:"title"`
	BaseMapLayers []OperationalLayer `json:"baseMapLayers"`
}

type ExportOptions struct {
	DPI int `json:"dpi"`
}

type LayoutOptions struct {
	TitleText     string `json:"titleText"`
	AuthorText    string `json:"authorText,omitempty"`
	CopyrightText string `json:"copyrightText,omitempty"`
}

// LoadWebMapTemplate reads a web map from a JSON-with-comments file. Its
// extent, scale and title are overwritten per print.
func LoadWebMapTemplate(path string) (WebMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WebMap{}, fmt.Errorf("read web map template: %w", err)
	}
	var wm WebMap
	if err := jsonc.Unmarshal(data, &wm); err != nil {
		return WebMap{}, fmt.Errorf("parse web map template %s: %w", path, err)
	}
	return wm, nil
}

func (wm WebMap) with(title string, extent feature.Extent, scale float64) WebMap {
	out := wm
	out.OperationalLayers = append([]OperationalLayer(nil), wm.OperationalLayers...)
	out.MapOptions = MapOptions{
		Extent: extentJSON{
			XMin: extent.XMin, YMin: extent.YMin, XMax: extent.XMax, YMax: extent.YMax,
			SpatialReference: spatialReference{WKID: extent.WKID},
		},
		Scale: scale,
	}
	out.LayoutOptions.TitleText = title
	if out.ExportOptions.DPI == 0 {
		out.ExportOptions.DPI = 96
	}
	return out
}
