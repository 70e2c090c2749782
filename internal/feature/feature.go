// Package feature holds the value types shared by the map, search, and
// selection packages: features, their attributes, geometry, and coded-value
// domains.
package feature

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Well-known fields of the water meter layer.
const (
	FieldServiceID    = "WSC_ID"
	FieldAddress      = "ADDRESS"
	FieldServiceType  = "WSC_TYPE"
	FieldAccountType  = "ACCT_TYPE"
	FieldMeterSize    = "METER_SIZE_T"
	FieldSerialNo     = "METER_SN"
	FieldRegisterNo   = "METER_REG_SN"
	FieldMeterAge     = "METER_AGE"
	DefaultTitleField = "{WSC_ID} - {ADDRESS}"
)

type Attributes map[string]any

// String formats a single attribute for display. Missing and null values
// are returned as "".
func (a Attributes) String(field string) string {
	v, ok := a[field]
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

func (a Attributes) Has(field string) bool {
	v, ok := a[field]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Format substitutes {FIELD} placeholders in tpl with attribute values.
func (a Attributes) Format(tpl string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		return a.String(m[1 : len(m)-1])
	})
}

// Feature is one record of a layer: identity, attributes, and point geometry.
type Feature struct {
	ObjectID   int64      `json:"objectId"`
	LayerID    string     `json:"layerId"`
	Attributes Attributes `json:"attributes"`
	Geometry   Point      `json:"geometry"`
}

func (f Feature) Title() string {
	return f.Attributes.Format(DefaultTitleField)
}

// Key identifies a feature across layers.
func (f Feature) Key() string {
	return f.LayerID + "/" + strconv.FormatInt(f.ObjectID, 10)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
