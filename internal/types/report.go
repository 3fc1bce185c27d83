package types

import "time"

// SecurityReport is the exported snapshot of the platform state.
type SecurityReport struct {
	Generated         time.Time        `json:"generated"`
	Features          map[string]bool  `json:"features"`
	Devices           int              `json:"devices"`
	Endpoints         int              `json:"endpoints"`
	Threats           int              `json:"threats"`
	ThreatsBySeverity map[Severity]int `json:"threats_by_severity"`
	Incidents         int              `json:"incidents"`
}

type ReportCreated struct {
	Key string `json:"key"`
}
