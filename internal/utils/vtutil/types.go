package vtutil

import (
	"fmt"
	"time"
)

// ThreatLevel represents a standardized threat severity
type ThreatLevel int

// Threat level constants
const (
	ThreatLevelUnknown  ThreatLevel = -1
	ThreatLevelClean    ThreatLevel = 0
	ThreatLevelLow      ThreatLevel = 1
	ThreatLevelMedium   ThreatLevel = 2
	ThreatLevelHigh     ThreatLevel = 3
	ThreatLevelCritical ThreatLevel = 4
)

// String returns the lower-case name of the threat level
func (l ThreatLevel) String() string {
	switch l {
	case ThreatLevelClean:
		return "clean"
	case ThreatLevelLow:
		return "low"
	case ThreatLevelMedium:
		return "medium"
	case ThreatLevelHigh:
		return "high"
	case ThreatLevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// FileReport is the VirusTotal view of a single DEX file
type FileReport struct {
	SHA256        string    `json:"sha256"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Size          int64     `json:"size"`
	PositiveCount int       `json:"positive_count"`
	TotalCount    int       `json:"total_count"`
	ScanDate      time.Time `json:"scan_date"`
	Tags          []string  `json:"tags"`
	Permalink     string    `json:"permalink"`
}

// ThreatLevel grades the report by the share of engines flagging the file
func (r *FileReport) ThreatLevel() ThreatLevel {
	if r.TotalCount == 0 {
		return ThreatLevelUnknown
	}

	ratio := float64(r.PositiveCount) / float64(r.TotalCount)

	switch {
	case ratio == 0:
		return ThreatLevelClean
	case ratio < 0.05:
		return ThreatLevelLow
	case ratio < 0.15:
		return ThreatLevelMedium
	case ratio < 0.30:
		return ThreatLevelHigh
	default:
		return ThreatLevelCritical
	}
}

// DetectionRatio renders "positives/total"
func (r *FileReport) DetectionRatio() string {
	return fmt.Sprintf("%d/%d", r.PositiveCount, r.TotalCount)
}

// permalink returns the VirusTotal GUI link for a file hash
func permalink(sha256 string) string {
	return fmt.Sprintf("https://www.virustotal.com/gui/file/%s/detection", sha256)
}
