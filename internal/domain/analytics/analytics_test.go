package analytics

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestBucketByMonth_SumsWithinMonth(t *testing.T) {
	samples := []Sample{
		{Date: "2024-01-05", Count: 2},
		{Date: "2024-01-20", Count: 3},
		{Date: "2024-02-01", Count: 1},
	}
	got := BucketByMonth(samples)
	want := []MonthBucket{
		{Label: "Jan 2024", Total: 5},
		{Label: "Feb 2024", Total: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BucketByMonth = %+v, want %+v", got, want)
	}
}

func TestBucketByMonth_FirstSeenOrder(t *testing.T) {
	// Buckets follow the order months first appear, not calendar order.
	samples := []Sample{
		{Date: "2024-03-10", Count: 1},
		{Date: "2024-01-02", Count: 4},
		{Date: "2024-03-15", Count: 2},
	}
	got := BucketByMonth(samples)
	want := []MonthBucket{
		{Label: "Mar 2024", Total: 3},
		{Label: "Jan 2024", Total: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BucketByMonth = %+v, want %+v", got, want)
	}
}

func TestBucketByMonth_SkipsUnparsableDates(t *testing.T) {
	samples := []Sample{
		{Date: "not-a-date", Count: 9},
		{Date: "2024-06-01", Count: 1},
	}
	got := BucketByMonth(samples)
	if len(got) != 1 || got[0].Label != "Jun 2024" || got[0].Total != 1 {
		t.Errorf("BucketByMonth = %+v, want single Jun 2024 bucket", got)
	}
}

func TestSortChronological(t *testing.T) {
	samples := []Sample{
		{Date: "2024-02-10", Count: 2},
		{Date: "2024-01-05", Count: 1},
		{Date: "2024-03-01", Count: 3},
	}
	SortChronological(samples)
	wantDates := []string{"2024-01-05", "2024-02-10", "2024-03-01"}
	for i, d := range wantDates {
		if samples[i].Date != d {
			t.Errorf("samples[%d].Date = %q, want %q", i, samples[i].Date, d)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		part, whole int
		want        string
	}{
		{0, 0, "0.0"},
		{5, 0, "0.0"},
		{1, 3, "33.3"},
		{1, 2, "50.0"},
		{3, 3, "100.0"},
	}
	for _, c := range cases {
		if got := Percentage(c.part, c.whole); got != c.want {
			t.Errorf("Percentage(%d, %d) = %q, want %q", c.part, c.whole, got, c.want)
		}
	}
}

func TestTimelineSeries_ChronologicalShortLabels(t *testing.T) {
	samples := []Sample{
		{Date: "2024-01-03", Count: 4},
		{Date: "2024-01-02", Count: 1},
	}
	labels, values := TimelineSeries(samples)
	if !reflect.DeepEqual(labels, []string{"Jan 2", "Jan 3"}) {
		t.Errorf("labels = %v", labels)
	}
	if !reflect.DeepEqual(values, []float64{1, 4}) {
		t.Errorf("values = %v", values)
	}
	// Input order is preserved.
	if samples[0].Date != "2024-01-03" {
		t.Error("TimelineSeries mutated its input")
	}
}

func TestMonthlySeries(t *testing.T) {
	labels, values := MonthlySeries([]MonthBucket{
		{Label: "Jan 2024", Total: 5},
		{Label: "Feb 2024", Total: 1},
	})
	if !reflect.DeepEqual(labels, []string{"Jan 2024", "Feb 2024"}) {
		t.Errorf("labels = %v", labels)
	}
	if !reflect.DeepEqual(values, []float64{5, 1}) {
		t.Errorf("values = %v", values)
	}
}

func TestReferenceDatasets_ParallelLengths(t *testing.T) {
	rf := RiskFactors()
	if len(rf.Labels) != len(rf.Values) {
		t.Errorf("risk factors: %d labels, %d values", len(rf.Labels), len(rf.Values))
	}
	ad := AgeDistribution()
	if len(ad.Labels) != len(ad.LowRisk) || len(ad.Labels) != len(ad.HighRisk) {
		t.Errorf("age distribution lengths mismatch: %d/%d/%d", len(ad.Labels), len(ad.LowRisk), len(ad.HighRisk))
	}
	ct := CholesterolTrends()
	if len(ct.Labels) != len(ct.Average) || len(ct.Labels) != len(ct.HighRisk) || len(ct.Labels) != len(ct.LowRisk) {
		t.Error("cholesterol trend lengths mismatch")
	}
}

func TestExport_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := NewExport(now).Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"riskFactors", "ageDistribution", "cholesterolTrends", "exportDate"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("export missing key %q", key)
		}
	}

	if got, want := ExportFilename(now), "heart_disease_analytics_2024-06-15.json"; got != want {
		t.Errorf("ExportFilename = %q, want %q", got, want)
	}
}
