package feature

import (
	"errors"
	"fmt"
)

// ErrCodedValueNotFound reports a data-integrity problem: an attribute holds
// a code that its field domain does not define.
var ErrCodedValueNotFound = errors.New("coded value not found in domain")

// ErrDomainNotLoaded is returned when a lookup runs before layer metadata
// has been resolved.
var ErrDomainNotLoaded = errors.New("field domain not loaded")

type CodedValue struct {
	Code any    `json:"code"`
	Name string `json:"name"`
}

type CodedValueDomain struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	CodedValues []CodedValue `json:"codedValues"`
}

// Lookup returns the display name for code. Exactly one coded value is
// expected to match; a miss is an error, never a silent fallback.
func (d *CodedValueDomain) Lookup(code any) (string, error) {
	if d == nil {
		return "", ErrDomainNotLoaded
	}
	key := formatValue(code)
	for _, cv := range d.CodedValues {
		if formatValue(cv.Code) == key {
			return cv.Name, nil
		}
	}
	return "", fmt.Errorf("%w: domain %q has no code %q", ErrCodedValueNotFound, d.Name, key)
}
