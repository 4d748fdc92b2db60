package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Export bundles the reference datasets for download as a JSON document.
type Export struct {
	RiskFactors      RiskFactorData       `json:"riskFactors"`
	AgeDistribution  AgeDistributionData  `json:"ageDistribution"`
	CholesterolTrend CholesterolTrendData `json:"cholesterolTrends"`
	ExportDate       string               `json:"exportDate"`
}

// NewExport builds the export payload stamped with now.
func NewExport(now time.Time) Export {
	return Export{
		RiskFactors:      RiskFactors(),
		AgeDistribution:  AgeDistribution(),
		CholesterolTrend: CholesterolTrends(),
		ExportDate:       now.UTC().Format(time.RFC3339),
	}
}

// Encode writes the export as indented JSON.
func (e Export) Encode(w io.Writer) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analytics export: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportFilename returns the download name for an export taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("heart_disease_analytics_%s.json", now.UTC().Format("2006-01-02"))
}
