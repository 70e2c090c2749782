package mapview

import "github.com/covgis/meters/internal/feature"

// LabelFields are the attributes a meter can be labeled by, in cycle order.
var LabelFields = []string{
	feature.FieldServiceID,
	feature.FieldAddress,
	feature.FieldSerialNo,
	feature.FieldRegisterNo,
	feature.FieldMeterSize,
}

const nonRadioLabel = "Non-radio"

type Labeling struct {
	Field   string
	Visible bool
}

// Label returns the label text for f. Meters without a register serial are
// not radio-read and are labeled as such when labeling by register number.
func (l Labeling) Label(f feature.Feature) string {
	if l.Field == feature.FieldRegisterNo && !f.Attributes.Has(feature.FieldRegisterNo) {
		return nonRadioLabel
	}
	return f.Attributes.String(l.Field)
}

// NextField returns the label field after the current one, wrapping around.
func (l Labeling) NextField() string {
	for i, f := range LabelFields {
		if f == l.Field {
			return LabelFields[(i+1)%len(LabelFields)]
		}
	}
	return LabelFields[0]
}
