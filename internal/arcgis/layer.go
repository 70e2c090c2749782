package arcgis

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/covgis/meters/internal/feature"
)

type Field struct {
	Name   string                    `json:"name"`
	Alias  string                    `json:"alias"`
	Type   string                    `json:"type"`
	Domain *feature.CodedValueDomain `json:"domain"`
}

// LayerInfo is the subset of layer metadata the browser uses.
type LayerInfo struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	ObjectIDField string  `json:"objectIdField"`
	MaxRecords    int     `json:"maxRecordCount"`
	Fields        []Field `json:"fields"`
}

type spatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

type extentJSON struct {
	XMin             float64          `json:"xmin"`
	YMin             float64          `json:"ymin"`
	XMax             float64          `json:"xmax"`
	YMax             float64          `json:"ymax"`
	SpatialReference spatialReference `json:"spatialReference"`
}

func (e extentJSON) toExtent() feature.Extent {
	wkid := e.SpatialReference.LatestWKID
	if wkid == 0 {
		wkid = e.SpatialReference.WKID
	}
	return feature.Extent{XMin: e.XMin, YMin: e.YMin, XMax: e.XMax, YMax: e.YMax, WKID: wkid}
}

// FeatureLayer is one layer of a feature or map service.
type FeatureLayer struct {
	client *Client
	id     string
	url    string

	mu   sync.RWMutex
	info *LayerInfo
}

// NewFeatureLayer returns the layer at layerURL. Features it returns carry id
// as their layer id.
func NewFeatureLayer(client *Client, id, layerURL string) *FeatureLayer {
	return &FeatureLayer{client: client, id: id, url: strings.TrimSuffix(layerURL, "/")}
}

func (l *FeatureLayer) ID() string  { return l.id }
func (l *FeatureLayer) URL() string { return l.url }

// Load fetches the layer metadata once; later calls return the cached copy.
func (l *FeatureLayer) Load(ctx context.Context) (LayerInfo, error) {
	l.mu.RLock()
	if l.info != nil {
		defer l.mu.RUnlock()
		return *l.info, nil
	}
	l.mu.RUnlock()

	var info LayerInfo
	if err := l.client.Get(ctx, l.url, nil, &info); err != nil {
		return LayerInfo{}, fmt.Errorf("load layer %s: %w", l.url, err)
	}
	if info.ObjectIDField == "" {
		info.ObjectIDField = "OBJECTID"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = &info
	return info, nil
}

// Domain returns the coded-value domain of field, or nil if the field has
// none.
func (l *FeatureLayer) Domain(ctx context.Context, field string) (*feature.CodedValueDomain, error) {
	info, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range info.Fields {
		if strings.EqualFold(f.Name, field) {
			return f.Domain, nil
		}
	}
	return nil, fmt.Errorf("layer %s has no field %q", info.Name, field)
}

// QueryExtent returns the extent of the features matching where, projected
// to outWKID.
func (l *FeatureLayer) QueryExtent(ctx context.Context, where string, outWKID int) (feature.Extent, error) {
	q := url.Values{}
	q.Set("where", where)
	q.Set("returnExtentOnly", "true")
	q.Set("outSR", strconv.Itoa(outWKID))

	var resp struct {
		Extent *extentJSON `json:"extent"`
		Count  *int        `json:"count"`
	}
	if err := l.client.Get(ctx, l.url+"/query", q, &resp); err != nil {
		return feature.Extent{}, fmt.Errorf("query extent: %w", err)
	}
	if resp.Extent == nil || (resp.Count != nil && *resp.Count == 0) ||
		math.IsNaN(resp.Extent.XMin) || resp.Extent.XMax < resp.Extent.XMin {
		return feature.Extent{}, fmt.Errorf("query extent %q: %w", where, ErrNoResults)
	}
	ext := resp.Extent.toExtent()
	if ext.WKID == 0 {
		ext.WKID = outWKID
	}
	return ext, nil
}

// Query describes a feature query.
type Query struct {
	Where          string
	ObjectIDs      []int64
	OutFields      []string
	ReturnGeometry bool
	OutWKID        int
	OrderBy        []string
	Limit          int
	Offset         int
}

func (q Query) values() url.Values {
	v := url.Values{}
	where := q.Where
	if where == "" && len(q.ObjectIDs) == 0 {
		where = "1=1"
	}
	if where != "" {
		v.Set("where", where)
	}
	if len(q.ObjectIDs) > 0 {
		ids := make([]string, len(q.ObjectIDs))
		for i, id := range q.ObjectIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		v.Set("objectIds", strings.Join(ids, ","))
	}
	fields := "*"
	if len(q.OutFields) > 0 {
		fields = strings.Join(q.OutFields, ",")
	}
	v.Set("outFields", fields)
	v.Set("returnGeometry", strconv.FormatBool(q.ReturnGeometry))
	if q.OutWKID != 0 {
		v.Set("outSR", strconv.Itoa(q.OutWKID))
	}
	if len(q.OrderBy) > 0 {
		v.Set("orderByFields", strings.Join(q.OrderBy, ","))
	}
	if q.Limit > 0 {
		v.Set("resultRecordCount", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("resultOffset", strconv.Itoa(q.Offset))
	}
	return v
}

type featureSetJSON struct {
	ObjectIDFieldName     string `json:"objectIdFieldName"`
	ExceededTransferLimit bool   `json:"exceededTransferLimit"`
	Features              []struct {
		Attributes feature.Attributes `json:"attributes"`
		Geometry   *struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"geometry"`
	} `json:"features"`
}

// Query runs q and returns the matching features tagged with the layer id. Features without geometry get the zero point.
func (l *FeatureLayer) Query(ctx context.Context, q Query) ([]feature.Feature, error) {
	features, _, err := l.query(ctx, q)
	return features, err
}

// QueryAll pages through every feature matching q.
func (l *FeatureLayer) QueryAll(ctx context.Context, q Query) ([]feature.Feature, error) {
	var all []feature.Feature
	q.Offset = 0
	for {
		page, more, err := l.query(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !more || len(page) == 0 {
			return all, nil
		}
		q.Offset += len(page)
	}
}

func (l *FeatureLayer) query(ctx context.Context, q Query) ([]feature.Feature, bool, error) {
	info, err := l.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	var fs featureSetJSON
	if err := l.client.Get(ctx, l.url+"/query", q.values(), &fs); err != nil {
		return nil, false, fmt.Errorf("query %s: %w", l.url, err)
	}
	oidField := fs.ObjectIDFieldName
	if oidField == "" {
		oidField = info.ObjectIDField
	}

	out := make([]feature.Feature, 0, len(fs.Features))
	for _, f := range fs.Features {
		oid, err := objectID(f.Attributes[oidField])
		if err != nil {
			return nil, false, fmt.Errorf("query %s: %w", l.url, err)
		}
		feat := feature.Feature{ObjectID: oid, LayerID: l.id, Attributes: f.Attributes}
		if f.Geometry != nil {
			feat.Geometry = feature.Point{X: f.Geometry.X, Y: f.Geometry.Y}
		}
		out = append(out, feat)
	}
	return out, fs.ExceededTransferLimit, nil
}

func objectID(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("feature without object id (%T)", v)
	}
}
