package types

// DetectionItem is one drawable unit translated from a vision-model response.
// BBox is [y_min, x_min, y_max, x_max] in the 0-1000 normalized space; values
// outside that range are clamped at render time, and a BBox that does not
// have exactly four components is skipped by the renderer.
type DetectionItem struct {
	Label       string  `json:"label"`
	BBox        []int   `json:"bbox"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

// ResultRow is one display row of a scenario's result table. Field names are
// not unique; separator rows carry an empty Value.
type ResultRow struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Row is a convenience constructor for ResultRow.
func Row(field, value string) ResultRow {
	return ResultRow{Field: field, Value: value}
}

// Separator returns a decorative grouping row with an empty value.
func Separator(title string) ResultRow {
	return ResultRow{Field: "─── " + title + " ───", Value: ""}
}
