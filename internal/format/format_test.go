package format

import (
	"testing"

	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormat_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format OutputFormat
		want   bool
	}{
		{name: "text format", format: TextFormat, want: true},
		{name: "json format", format: JSONFormat, want: true},
		{name: "invalid format", format: "invalid", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.format.IsValid())
		})
	}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	items := []suggest.Item{
		{Label: "W-10 - 1 Main St", Payload: int64(1)},
		{Label: "W-11 - 2 Main St", Payload: int64(2)},
	}

	tests := []struct {
		name    string
		items   []suggest.Item
		format  OutputFormat
		want    string
		wantErr bool
	}{
		{
			name:   "text",
			items:  items,
			format: TextFormat,
			want:   "W-10 - 1 Main St\nW-11 - 2 Main St",
		},
		{
			name:   "json",
			items:  items[:1],
			format: JSONFormat,
			want:   "{\n  \"query\": \"w-1\",\n  \"suggestions\": [\n    {\n      \"label\": \"W-10 - 1 Main St\",\n      \"payload\": 1\n    }\n  ]\n}",
		},
		{
			name:   "json empty",
			format: JSONFormat,
			want:   "{\n  \"query\": \"w-1\",\n  \"suggestions\": []\n}",
		},
		{
			name:    "invalid",
			format:  "yaml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Suggestions("w-1", tt.items, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobs(t *testing.T) {
	t.Parallel()

	jobs := []export.Job{
		{ID: 1, Title: "Water Meters 1", Status: export.Complete, URL: "https://print.example/1.pdf"},
		{ID: 2, Title: "Water Meters 2", Status: export.Failed},
	}

	text, err := Jobs(jobs, TextFormat)
	require.NoError(t, err)
	assert.Equal(t, "1  Water Meters 1  complete  https://print.example/1.pdf\n2  Water Meters 2  error", text)

	js, err := Jobs(jobs, JSONFormat)
	require.NoError(t, err)
	assert.Contains(t, js, `"status": "error"`)
	assert.NotContains(t, js, `"url": ""`)

	_, err = Jobs(jobs, "xml")
	assert.Error(t, err)
}
