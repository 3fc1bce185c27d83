package types

import (
	"time"

	"github.com/google/uuid"
)

type ThreatType string

const (
	ThreatRansomware ThreatType = "RANSOMWARE"
	ThreatMalware    ThreatType = "MALWARE"
	ThreatPhishing   ThreatType = "PHISHING"
	ThreatZeroDay    ThreatType = "ZERO_DAY"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

const StatusBlocked = "BLOCKED"

// Threat is a recorded detection against an endpoint.
type Threat struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Type          ThreatType `json:"type" db:"type"`
	Severity      Severity   `json:"severity" db:"severity"`
	Status        string     `json:"status" db:"status"`
	EndpointID    *uuid.UUID `json:"endpoint_id,omitempty" db:"endpoint_id"`
	DetectionTime time.Time  `json:"detection_time" db:"detection_time"`
	Description   string     `json:"description" db:"description"`
	ActionTaken   string     `json:"action_taken" db:"action_taken"`
}

type ThreatCreateDto struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Type        ThreatType `json:"type" validate:"required,oneof=RANSOMWARE MALWARE PHISHING ZERO_DAY"`
	Severity    Severity   `json:"severity" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW"`
	Status      string     `json:"status" validate:"omitempty,max=20"`
	EndpointID  *uuid.UUID `json:"endpoint_id"`
	Description string     `json:"description"`
	ActionTaken string     `json:"action_taken" validate:"omitempty,max=100"`
}

// RansomwareIncident is the outcome of a ransomware scan on one endpoint.
type RansomwareIncident struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	EndpointID         uuid.UUID `json:"endpoint_id" db:"endpoint_id"`
	DetectionTime      time.Time `json:"detection_time" db:"detection_time"`
	FilesTargeted      int       `json:"files_targeted" db:"files_targeted"`
	FilesProtected     int       `json:"files_protected" db:"files_protected"`
	EncryptionAttempts int       `json:"encryption_attempts" db:"encryption_attempts"`
	BackupCreated      bool      `json:"backup_created" db:"backup_created"`
	Status             string    `json:"status" db:"status"`
}
