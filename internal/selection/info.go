package selection

import (
	"fmt"
	"strings"

	"github.com/covgis/meters/internal/feature"
)

// Row is one line of the info panel. Err is set when the value could not be
// resolved; the row is still shown.
type Row struct {
	Label string
	Value string
	Err   error
}

// InfoPanel is the rendered detail view of the selected feature.
type InfoPanel struct {
	Title string
	Rows  []Row
}

func (p InfoPanel) IsZero() bool { return p.Title == "" && len(p.Rows) == 0 }

// Markdown renders the panel as a two-column table.
func (p InfoPanel) Markdown() string {
	if p.IsZero() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", escape(p.Title))
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, r := range p.Rows {
		v := escape(r.Value)
		if r.Err != nil {
			v = "**data error:** " + escape(r.Err.Error())
		}
		fmt.Fprintf(&b, "| %s | %s |\n", r.Label, v)
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// BuildInfo builds the info panel for f. A coded value missing from domain
// is rendered as an error row and also returned, wrapping
// feature.ErrCodedValueNotFound.
func BuildInfo(f feature.Feature, domain *feature.CodedValueDomain) (InfoPanel, error) {
	a := f.Attributes
	p := InfoPanel{Title: f.Title()}

	p.Rows = append(p.Rows, Row{Label: "Service Type", Value: a.String(feature.FieldServiceType)})

	var lookupErr error
	acct := Row{Label: "Account Type"}
	if a.Has(feature.FieldAccountType) {
		name, err := domain.Lookup(a[feature.FieldAccountType])
		if err != nil {
			acct.Err = err
			lookupErr = fmt.Errorf("account type of %s: %w", f.Key(), err)
		}
		acct.Value = name
	}
	p.Rows = append(p.Rows, acct)

	p.Rows = append(p.Rows,
		Row{Label: "Meter Size", Value: suffix(a, feature.FieldMeterSize, `"`)},
		Row{Label: "Serial No.", Value: a.String(feature.FieldSerialNo)},
	)
	if a.Has(feature.FieldRegisterNo) {
		p.Rows = append(p.Rows, Row{Label: "Register No.", Value: a.String(feature.FieldRegisterNo)})
	}
	p.Rows = append(p.Rows, Row{Label: "Meter Age", Value: suffix(a, feature.FieldMeterAge, " years")})

	return p, lookupErr
}

func suffix(a feature.Attributes, field, unit string) string {
	if !a.Has(field) {
		return ""
	}
	return a.String(field) + unit
}
