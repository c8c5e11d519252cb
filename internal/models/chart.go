package models

// Series is one named data series within a chart.
type Series struct {
	Name string    `json:"name,omitempty"`
	X    []string  `json:"x,omitempty"`
	Y    []float64 `json:"y,omitempty"`
	XNum []float64 `json:"x_num,omitempty"`
	// Z holds matrix-valued data for heatmap charts, row major.
	Z [][]float64 `json:"z,omitempty"`
}

// ChartSpec is a declarative chart description: the front end decides how to
// render it. A failed chart carries only Error; chart failures are isolated
// per chart and never abort the surrounding report.
type ChartSpec struct {
	Type   string   `json:"type,omitempty"`
	Title  string   `json:"title,omitempty"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	Series []Series `json:"series,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// ChartError builds the per-chart failure sentinel.
func ChartError(msg string) ChartSpec {
	return ChartSpec{Error: msg}
}
