package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog"
)

// statsPage renders the headline counters as a standalone page.
var statsPage = template.Must(template.New("stats").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Dashboard</title></head>
<body>
<div class="stat-cards">
  <div class="stat-card"><span class="stat-value">{{.TotalPatients}}</span><span class="stat-label">Total Patients</span></div>
  <div class="stat-card"><span class="stat-value">{{.HighRiskPatients}}</span><span class="stat-label">High Risk Patients</span></div>
  <div class="stat-card"><span class="stat-value">{{.RecentPredictions}}</span><span class="stat-label">Recent Predictions</span></div>
  <div class="stat-card"><span class="stat-value">{{.TotalPredictions}}</span><span class="stat-label">Total Predictions</span></div>
</div>
</body>
</html>
`))

// EchartsRenderer writes each target as an HTML file under outputDir. Only
// targets activated for the current page are drawn; everything else is
// silently skipped so page loaders can share render code.
type EchartsRenderer struct {
	mu        sync.Mutex
	outputDir string
	targets   map[string]bool
	log       zerolog.Logger
}

// NewEchartsRenderer creates a renderer writing pages into outputDir.
func NewEchartsRenderer(outputDir string, log zerolog.Logger) *EchartsRenderer {
	return &EchartsRenderer{
		outputDir: outputDir,
		targets:   make(map[string]bool),
		log:       log,
	}
}

// ActivateTargets replaces the set of drawable targets. Called on every page
// switch with the slots that page defines.
func (r *EchartsRenderer) ActivateTargets(targets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = make(map[string]bool, len(targets))
	for _, t := range targets {
		r.targets[t] = true
	}
}

// HasTarget reports whether target is drawable on the current page.
func (r *EchartsRenderer) HasTarget(target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets[target]
}

func (r *EchartsRenderer) skip(target string) bool {
	if r.HasTarget(target) {
		return false
	}
	r.log.Debug().Str("target", target).Msg("render skipped, target not on page")
	return true
}

func (r *EchartsRenderer) write(target string, render func(f *os.File) error) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(r.outputDir, target+".html"))
	if err != nil {
		return fmt.Errorf("create page %s: %w", target, err)
	}
	defer f.Close()
	return render(f)
}

// RenderStats writes the headline counter cards.
func (r *EchartsRenderer) RenderStats(target string, cards StatCards) error {
	if r.skip(target) {
		return nil
	}
	return r.write(target, func(f *os.File) error {
		return statsPage.Execute(f, cards)
	})
}

// RenderPie writes a pie chart, one slice per label.
func (r *EchartsRenderer) RenderPie(target, title string, s Series) error {
	if r.skip(target) {
		return nil
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	items := make([]opts.PieData, 0, len(s.Labels))
	for i, label := range s.Labels {
		items = append(items, opts.PieData{Name: label, Value: s.Values[i]})
	}
	pie.AddSeries(title, items)
	return r.write(target, func(f *os.File) error { return pie.Render(f) })
}

// RenderLine writes a single smoothed line.
func (r *EchartsRenderer) RenderLine(target, title string, s Series) error {
	if r.skip(target) {
		return nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.LineData, 0, len(s.Values))
	for _, v := range s.Values {
		data = append(data, opts.LineData{Value: v})
	}
	line.SetXAxis(s.Labels).
		AddSeries(title, data).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return r.write(target, func(f *os.File) error { return line.Render(f) })
}

// RenderMultiLine writes several lines over a shared x axis.
func (r *EchartsRenderer) RenderMultiLine(target, title string, ms MultiSeries) error {
	if r.skip(target) {
		return nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(ms.Labels)
	for _, series := range ms.Series {
		data := make([]opts.LineData, 0, len(series.Values))
		for _, v := range series.Values {
			data = append(data, opts.LineData{Value: v})
		}
		line.AddSeries(series.Name, data)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return r.write(target, func(f *os.File) error { return line.Render(f) })
}

// RenderBar writes a single-series bar chart.
func (r *EchartsRenderer) RenderBar(target, title string, s Series) error {
	if r.skip(target) {
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.BarData, 0, len(s.Values))
	for _, v := range s.Values {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(s.Labels).AddSeries(title, data)
	return r.write(target, func(f *os.File) error { return bar.Render(f) })
}

// RenderGroupedBar writes side-by-side bars per label, one group per series.
func (r *EchartsRenderer) RenderGroupedBar(target, title string, ms MultiSeries) error {
	if r.skip(target) {
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ms.Labels)
	for _, series := range ms.Series {
		data := make([]opts.BarData, 0, len(series.Values))
		for _, v := range series.Values {
			data = append(data, opts.BarData{Value: v})
		}
		bar.AddSeries(series.Name, data)
	}
	return r.write(target, func(f *os.File) error { return bar.Render(f) })
}

// RenderRadar writes a radar chart with one spoke per axis.
func (r *EchartsRenderer) RenderRadar(target, title string, axes []RadarAxis, s Series) error {
	if r.skip(target) {
		return nil
	}
	indicators := make([]*opts.Indicator, 0, len(axes))
	for _, a := range axes {
		indicators = append(indicators, &opts.Indicator{Name: a.Name, Max: float32(a.Max)})
	}
	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators}),
	)
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	radar.AddSeries(title, []opts.RadarData{{Value: values}})
	return r.write(target, func(f *os.File) error { return radar.Render(f) })
}
