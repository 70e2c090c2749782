package arcgis

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layerJSON = `{
  "id": 0,
  "name": "Water Meters",
  "objectIdField": "OBJECTID",
  "maxRecordCount": 2,
  "fields": [
    {"name": "OBJECTID", "type": "esriFieldTypeOID"},
    {"name": "WSC_ID", "type": "esriFieldTypeString"},
    {"name": "ACCT_TYPE", "type": "esriFieldTypeString", "domain": {
      "type": "codedValue", "name": "ACCT_TYPE",
      "codedValues": [{"code": "R", "name": "Residential"}, {"code": "C", "name": "Commercial"}]
    }}
  ]
}`

var meterRows = []map[string]any{
	{"attributes": map[string]any{"OBJECTID": 1, "WSC_ID": "W-10", "ADDRESS": "1 Main St"}, "geometry": map[string]any{"x": 10.5, "y": 20}},
	{"attributes": map[string]any{"OBJECTID": 2, "WSC_ID": "W-11", "ADDRESS": "2 Main St"}, "geometry": map[string]any{"x": 30, "y": 40}},
	{"attributes": map[string]any{"OBJECTID": 3, "WSC_ID": "W-20", "ADDRESS": "9 Oak Ave"}, "geometry": map[string]any{"x": 50, "y": 60}},
}

type fakeServer struct {
	*httptest.Server
	queries []string
	form    map[string]string
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/layer", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("f"))
		_, _ = io.WriteString(w, layerJSON)
	})
	mux.HandleFunc("/layer/query", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fs.queries = append(fs.queries, q.Encode())
		switch {
		case q.Get("returnExtentOnly") == "true":
			if q.Get("where") == "1=0" {
				writeJSON(w, map[string]any{"count": 0})
				return
			}
			writeJSON(w, map[string]any{"extent": map[string]any{
				"xmin": -100, "ymin": -50, "xmax": 100, "ymax": 50,
				"spatialReference": map[string]any{"wkid": 102100, "latestWkid": 3857},
			}})
		case q.Get("objectIds") != "":
			for _, row := range meterRows {
				attrs := row["attributes"].(map[string]any)
				if q.Get("objectIds") == jsonString(attrs["OBJECTID"]) {
					writeJSON(w, map[string]any{"objectIdFieldName": "OBJECTID", "features": []any{row}})
					return
				}
			}
			writeJSON(w, map[string]any{"features": []any{}})
		case strings.Contains(q.Get("where"), "LIKE"):
			var out []any
			for _, row := range meterRows {
				attrs := row["attributes"].(map[string]any)
				if strings.Contains(q.Get("where"), "'%W-1%'") && strings.HasPrefix(attrs["WSC_ID"].(string), "W-1") {
					out = append(out, map[string]any{"attributes": attrs})
				}
			}
			writeJSON(w, map[string]any{"objectIdFieldName": "OBJECTID", "features": out})
		default:
			offset := 0
			if q.Get("resultOffset") == "2" {
				offset = 2
			}
			end := min(offset+2, len(meterRows))
			writeJSON(w, map[string]any{
				"objectIdFieldName":     "OBJECTID",
				"exceededTransferLimit": end < len(meterRows),
				"features":              meterRows[offset:end],
			})
		}
	})
	mux.HandleFunc("/print/execute", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		fs.form = map[string]string{}
		for k := range r.PostForm {
			fs.form[k] = r.PostForm.Get(k)
		}
		if strings.Contains(r.PostForm.Get("Web_Map_as_JSON"), "Broken") {
			writeJSON(w, map[string]any{"error": map[string]any{
				"code": 400, "message": "Unable to complete operation.", "details": []string{"Error executing tool."},
			}})
			return
		}
		writeJSON(w, map[string]any{"results": []any{map[string]any{
			"paramName": "Output_File",
			"value":     map[string]any{"url": "https://print.example/out/abc.pdf"},
		}}})
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func jsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func testClient() *Client {
	return NewClient(ClientConfig{RateLimit: 1000, RateBurst: 100})
}

func TestFeatureLayerLoadAndDomain(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	layer := NewFeatureLayer(testClient(), "meters", srv.URL+"/layer/")

	info, err := layer.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Water Meters", info.Name)
	assert.Equal(t, "OBJECTID", info.ObjectIDField)

	d, err := layer.Domain(t.Context(), "acct_type")
	require.NoError(t, err)
	name, err := d.Lookup("C")
	require.NoError(t, err)
	assert.Equal(t, "Commercial", name)

	d, err = layer.Domain(t.Context(), "WSC_ID")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = layer.Domain(t.Context(), "NOPE")
	assert.Error(t, err)
}

func TestQueryExtent(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	layer := NewFeatureLayer(testClient(), "meters", srv.URL+"/layer")

	ext, err := layer.QueryExtent(t.Context(), "1 = 1", feature.WebMercator)
	require.NoError(t, err)
	assert.Equal(t, feature.Extent{XMin: -100, YMin: -50, XMax: 100, YMax: 50, WKID: 3857}, ext)
	assert.Contains(t, srv.queries[0], "outSR=3857")

	_, err = layer.QueryExtent(t.Context(), "1=0", feature.WebMercator)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestQueryAllPages(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	layer := NewFeatureLayer(testClient(), "meters", srv.URL+"/layer")

	features, err := layer.QueryAll(t.Context(), Query{ReturnGeometry: true, OutWKID: 3857})
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.Equal(t, int64(3), features[2].ObjectID)
	assert.Equal(t, "meters", features[0].LayerID)
	assert.Equal(t, feature.Point{X: 10.5, Y: 20}, features[0].Geometry)
}

func TestSearchSource(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	layer := NewFeatureLayer(testClient(), "meters", srv.URL+"/layer")
	src := NewSearchSource(layer, []string{"WSC_ID", "ADDRESS"}, feature.DefaultTitleField, 6, 3857)

	resp, err := src.Suggest(t.Context(), " w-1 ")
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "W-10 - 1 Main St", resp.Items[0].Label)
	assert.Equal(t, int64(1), resp.Items[0].Payload)

	last := srv.queries[len(srv.queries)-1]
	assert.Contains(t, last, "resultRecordCount=6")
	assert.Contains(t, last, "returnGeometry=false")

	f, err := src.Resolve(t.Context(), resp.Items[1].Payload)
	require.NoError(t, err)
	assert.Equal(t, "W-11", f.Attributes.String("WSC_ID"))
	assert.Equal(t, feature.Point{X: 30, Y: 40}, f.Geometry)

	_, err = src.Resolve(t.Context(), int64(42))
	assert.ErrorIs(t, err, ErrNoResults)
	_, err = src.Resolve(t.Context(), "1")
	assert.Error(t, err)
}

func TestLikeClauseEscaping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"quote", "o'neil", `UPPER(WSC_ID) LIKE '%O''NEIL%' ESCAPE '\' OR UPPER(ADDRESS) LIKE '%O''NEIL%' ESCAPE '\'`},
		{"percent", "%", `UPPER(WSC_ID) LIKE '%\%%' ESCAPE '\' OR UPPER(ADDRESS) LIKE '%\%%' ESCAPE '\'`},
		{"underscore", "w_1", `UPPER(WSC_ID) LIKE '%W\_1%' ESCAPE '\' OR UPPER(ADDRESS) LIKE '%W\_1%' ESCAPE '\'`},
		{"backslash", `a\b`, `UPPER(WSC_ID) LIKE '%A\\B%' ESCAPE '\' OR UPPER(ADDRESS) LIKE '%A\\B%' ESCAPE '\'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, likeClause([]string{"WSC_ID", "ADDRESS"}, tt.query))
		})
	}
}

func TestPrintService(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	p := NewPrintService(testClient(), srv.URL+"/print",
		WithOperationalLayer("meters", "Water Meters", srv.URL+"/layer"))

	tpl := export.Template{
		Title:  "Water Meters 1",
		Format: "PDF",
		Layout: "Letter ANSI A Portrait",
		Extent: feature.Extent{XMin: 1, YMin: 2, XMax: 3, YMax: 4, WKID: 3857},
		Scale:  1200,
	}
	res, err := p.Print(t.Context(), tpl)
	require.NoError(t, err)
	assert.Equal(t, "https://print.example/out/abc.pdf", res.URL)

	assert.Equal(t, "PDF", srv.form["Format"])
	assert.Equal(t, "Letter ANSI A Portrait", srv.form["Layout_Template"])
	assert.Equal(t, "json", srv.form["f"])

	var wm WebMap
	require.NoError(t, json.Unmarshal([]byte(srv.form["Web_Map_as_JSON"]), &wm))
	assert.Equal(t, "Water Meters 1", wm.LayoutOptions.TitleText)
	assert.Equal(t, 3857, wm.MapOptions.Extent.SpatialReference.WKID)
	assert.Equal(t, 1200.0, wm.MapOptions.Scale)
	require.Len(t, wm.OperationalLayers, 1)
	assert.Equal(t, "meters", wm.OperationalLayers[0].ID)
}

func TestPrintServiceError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	p := NewPrintService(testClient(), srv.URL+"/print")

	_, err := p.Print(t.Context(), export.Template{Title: "Broken"})
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 400, svcErr.Code)
	assert.Contains(t, err.Error(), "Error executing tool.")
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := testClient()
	err := c.Get(t.Context(), srv.URL+"/down", nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)

	_, _, err = c.Download(t.Context(), srv.URL+"/down")
	assert.Error(t, err)
}

func TestLoadWebMapTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "webmap.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
  // basemap shown under the meters
  "baseMap": {"title": "Streets", "baseMapLayers": [{"id": "streets", "url": "https://tiles.example/streets", "opacity": 1}]},
  "exportOptions": {"dpi": 150},
  "layoutOptions": {"titleText": "ignored", "authorText": "Utilities"}
}`), 0o644))

	wm, err := LoadWebMapTemplate(path)
	require.NoError(t, err)
	require.NotNil(t, wm.BaseMap)
	assert.Equal(t, "Streets", wm.BaseMap.Title)

	out := wm.with("Water Meters 3", feature.Extent{WKID: 3857}, 2400)
	assert.Equal(t, "Water Meters 3", out.LayoutOptions.TitleText)
	assert.Equal(t, "Utilities", out.LayoutOptions.AuthorText)
	assert.Equal(t, 150, out.ExportOptions.DPI)

	_, err = LoadWebMapTemplate(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.Error(t, err)
}
