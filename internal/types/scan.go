package types

import (
	"time"

	"github.com/google/uuid"
)

// ScanRequest is the payload of a ransomware scan task. A nil EndpointID scans every endpoint.
type ScanRequest struct {
	EndpointID *uuid.UUID `json:"endpoint_id,omitempty"`
}

// Target identifies the scan for de-duplication.
func (r ScanRequest) Target() string {
	if r.EndpointID == nil {
		return "all"
	}
	return r.EndpointID.String()
}

type ScanResult struct {
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Scanned     int                  `json:"scanned"`
	ThreatLevel string               `json:"threat_level"`
	Incidents   []RansomwareIncident `json:"incidents"`
}

type ScanStarted struct {
	Started bool   `json:"started"`
	TaskID  string `json:"task_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
