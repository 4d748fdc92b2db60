// Package render turns prepared view-model data into dashboard output. The
// managers and the orchestrator depend only on the Renderer interface; the
// concrete implementation writes self-contained HTML pages.
package render

// Series is a single labelled data series, e.g. one chart's categories and
// values in matching order.
type Series struct {
	Labels []string
	Values []float64
}

// NamedSeries is one named series inside a multi-series chart.
type NamedSeries struct {
	Name   string
	Values []float64
}

// MultiSeries carries several series over a shared label axis.
type MultiSeries struct {
	Labels []string
	Series []NamedSeries
}

// RadarAxis describes one spoke of a radar chart.
type RadarAxis struct {
	Name string
	Max  float64
}

// StatCards is the dashboard's headline counters.
type StatCards struct {
	TotalPatients     int
	HighRiskPatients  int
	RecentPredictions int
	TotalPredictions  int
}

// Renderer draws chart and card output into named targets. A target is a
// slot on the active page; rendering into a target the page does not define
// is a silent no-op.
type Renderer interface {
	RenderStats(target string, cards StatCards) error
	RenderPie(target, title string, s Series) error
	RenderLine(target, title string, s Series) error
	RenderMultiLine(target, title string, ms MultiSeries) error
	RenderBar(target, title string, s Series) error
	RenderGroupedBar(target, title string, ms MultiSeries) error
	RenderRadar(target, title string, axes []RadarAxis, s Series) error
	HasTarget(target string) bool
}
