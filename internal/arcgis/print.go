package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/covgis/meters/internal/export"
)

// PrintService submits maps to an Export Web Map task.
type PrintService struct {
	client *Client
	url    string
	webMap WebMap
}

type PrintOption func(*PrintService)

// WithOperationalLayer adds a layer to every printed map.
func WithOperationalLayer(id, title, layerURL string) PrintOption {
	return func(p *PrintService) {
		p.webMap.OperationalLayers = append(p.webMap.OperationalLayers, OperationalLayer{
			ID: id, URL: layerURL, Title: title, Opacity: 1,
		})
	}
}

// WithWebMap starts every print from wm instead of an empty map.
func WithWebMap(wm WebMap) PrintOption {
	return func(p *PrintService) {
		layers := p.webMap.OperationalLayers
		p.webMap = wm
		p.webMap.OperationalLayers = append(wm.OperationalLayers, layers...)
	}
}

func NewPrintService(client *Client, taskURL string, opts ...PrintOption) *PrintService {
	p := &PrintService{client: client, url: strings.TrimSuffix(taskURL, "/")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print runs the task synchronously and returns the output file URL.
func (p *PrintService) Print(ctx context.Context, tpl export.Template) (export.Result, error) {
	wm := p.webMap.with(tpl.Title, tpl.Extent, tpl.Scale)
	data, err := json.Marshal(wm)
	if err != nil {
		return export.Result{}, fmt.Errorf("encode web map: %w", err)
	}

	form := url.Values{}
	form.Set("Web_Map_as_JSON", string(data))
	form.Set("Format", tpl.Format)
	form.Set("Layout_Template", tpl.Layout)

	var resp struct {
		Results []struct {
			ParamName string `json:"paramName"`
			Value     struct {
				URL string `json:"url"`
			} `json:"value"`
		} `json:"results"`
	}
	if err := p.client.PostForm(ctx, p.url+"/execute", form, &resp); err != nil {
		return export.Result{}, fmt.Errorf("print %q: %w", tpl.Title, err)
	}
	for _, r := range resp.Results {
		if r.Value.URL != "" {
			return export.Result{URL: r.Value.URL}, nil
		}
	}
	return export.Result{}, fmt.Errorf("print %q: %w", tpl.Title, ErrNoResults)
}
