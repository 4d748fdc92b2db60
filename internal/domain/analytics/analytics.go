// Package analytics holds the derived-data transforms behind the dashboard
// charts: monthly bucketing, chronological ordering, percentage formatting,
// and the static reference datasets. Everything here is pure; fetching and
// drawing live elsewhere.
package analytics

import (
	"fmt"
	"sort"
	"time"
)

const wireDate = "2006-01-02"

// Sample is one point of the predictions timeline as served by the backend.
type Sample struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RiskSlice is one slice of the risk distribution as served by the backend.
type RiskSlice struct {
	RiskLevel string `json:"risk_level"`
	Count     int    `json:"count"`
}

// MonthBucket is the total for one calendar month, labelled "Jan 2006".
type MonthBucket struct {
	Label string
	Total int
}

// BucketByMonth groups day-grained samples into calendar-month totals. Buckets
// appear in first-seen order of the input; samples with unparsable dates are
// skipped.
func BucketByMonth(samples []Sample) []MonthBucket {
	totals := make(map[string]int)
	var order []string

	for _, s := range samples {
		t, err := time.Parse(wireDate, s.Date)
		if err != nil {
			continue
		}
		label := t.Format("Jan 2006")
		if _, seen := totals[label]; !seen {
			order = append(order, label)
		}
		totals[label] += s.Count
	}

	buckets := make([]MonthBucket, 0, len(order))
	for _, label := range order {
		buckets = append(buckets, MonthBucket{Label: label, Total: totals[label]})
	}
	return buckets
}

// SortChronological orders samples by date, oldest first. The sort is stable;
// unparsable dates sort as the zero time.
func SortChronological(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		ti, _ := time.Parse(wireDate, samples[i].Date)
		tj, _ := time.Parse(wireDate, samples[j].Date)
		return ti.Before(tj)
	})
}

// Percentage formats part out of whole with one decimal place. A zero whole
// yields "0.0" rather than dividing.
func Percentage(part, whole int) string {
	if whole == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(part)/float64(whole)*100)
}

// TimelineSeries converts samples into chart labels ("Jan 2") and values in
// chronological order. The input is not modified.
func TimelineSeries(samples []Sample) (labels []string, values []float64) {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	SortChronological(sorted)

	for _, s := range sorted {
		t, err := time.Parse(wireDate, s.Date)
		if err != nil {
			continue
		}
		labels = append(labels, t.Format("Jan 2"))
		values = append(values, float64(s.Count))
	}
	return labels, values
}

// MonthlySeries converts month buckets into chart labels and values.
func MonthlySeries(buckets []MonthBucket) (labels []string, values []float64) {
	for _, b := range buckets {
		labels = append(labels, b.Label)
		values = append(values, float64(b.Total))
	}
	return labels, values
}

// ---- reference datasets ----

// RiskFactorData is the prevalence of common cardiovascular risk factors.
type RiskFactorData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// AgeDistributionData is the patient count per age band, split by risk level.
type AgeDistributionData struct {
	Labels   []string  `json:"labels"`
	LowRisk  []float64 `json:"lowRisk"`
	HighRisk []float64 `json:"highRisk"`
}

// CholesterolTrendData is the monthly cholesterol averages, split by cohort.
type CholesterolTrendData struct {
	Labels   []string  `json:"labels"`
	Average  []float64 `json:"average"`
	HighRisk []float64 `json:"highRisk"`
	LowRisk  []float64 `json:"lowRisk"`
}

// RiskFactors returns the reference risk-factor prevalence dataset.
func RiskFactors() RiskFactorData {
	return RiskFactorData{
		Labels: []string{"High Cholesterol", "High Blood Pressure", "Diabetes", "Smoking", "Family History", "Obesity"},
		Values: []float64{45, 38, 22, 15, 28, 33},
	}
}

// AgeDistribution returns the reference age-band dataset.
func AgeDistribution() AgeDistributionData {
	return AgeDistributionData{
		Labels:   []string{"20-30", "31-40", "41-50", "51-60", "61-70", "71+"},
		LowRisk:  []float64{12, 18, 15, 8, 5, 2},
		HighRisk: []float64{3, 8, 12, 15, 18, 12},
	}
}

// CholesterolTrends returns the reference cholesterol trend dataset.
func CholesterolTrends() CholesterolTrendData {
	return CholesterolTrendData{
		Labels:   []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
		Average:  []float64{220, 215, 218, 212, 208, 205},
		HighRisk: []float64{280, 275, 270, 268, 265, 262},
		LowRisk:  []float64{180, 175, 178, 172, 170, 168},
	}
}
