package arcgis

import (
	"context"
	"fmt"
	"strings"

	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/suggest"
)

// SearchSource suggests features of a layer whose search fields contain the
// query, case-insensitively.
type SearchSource struct {
	layer    *FeatureLayer
	fields   []string
	template string
	max      int
	outWKID  int
}

func NewSearchSource(layer *FeatureLayer, fields []string, labelTemplate string, maxSuggestions, outWKID int) *SearchSource {
	if maxSuggestions <= 0 {
		maxSuggestions = suggest.DefaultMaxSuggestions
	}
	return &SearchSource{
		layer:    layer,
		fields:   fields,
		template: labelTemplate,
		max:      maxSuggestions,
		outWKID:  outWKID,
	}
}

func (s *SearchSource) Suggest(ctx context.Context, query string) (suggest.Response, error) {
	info, err := s.layer.Load(ctx)
	if err != nil {
		return suggest.Response{}, err
	}
	features, err := s.layer.Query(ctx, Query{
		Where:     likeClause(s.fields, query),
		OutFields: append([]string{info.ObjectIDField}, s.fields...),
		OrderBy:   s.fields[:1],
		Limit:     s.max,
	})
	if err != nil {
		return suggest.Response{}, err
	}

	resp := suggest.Response{ResultCount: len(features)}
	for _, f := range features {
		resp.Items = append(resp.Items, suggest.Item{
			Label:   f.Attributes.Format(s.template),
			Payload: f.ObjectID,
		})
	}
	return resp, nil
}

// Resolve fetches the full feature for a suggestion payload (an object id).
func (s *SearchSource) Resolve(ctx context.Context, payload any) (feature.Feature, error) {
	oid, ok := payload.(int64)
	if !ok {
		return feature.Feature{}, fmt.Errorf("resolve: unexpected payload %T", payload)
	}
	features, err := s.layer.Query(ctx, Query{
		ObjectIDs:      []int64{oid},
		ReturnGeometry: true,
		OutWKID:        s.outWKID,
	})
	if err != nil {
		return feature.Feature{}, err
	}
	if len(features) == 0 {
		return feature.Feature{}, fmt.Errorf("resolve objectId %d: %w", oid, ErrNoResults)
	}
	return features[0], nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `'`, `''`)

// likeClause builds a where clause matching query anywhere in any of fields.
// Wildcards typed by the user match literally.
func likeClause(fields []string, query string) string {
	q := likeEscaper.Replace(strings.ToUpper(strings.TrimSpace(query)))
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf(`UPPER(%s) LIKE '%%%s%%' ESCAPE '\'`, f, q)
	}
	return strings.Join(parts, " OR ")
}
