package styles

const (
	MetersIcon string = "◎"

	CheckIcon   string = "✓"
	ErrorIcon   string = "✖"
	WarningIcon string = "⚠"
	InfoIcon    string = "ℹ"
	PendingIcon string = "⟳"
	LabelIcon   string = "✎"
)
