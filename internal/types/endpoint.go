package types

import (
	"time"

	"github.com/google/uuid"
)

type EndpointType string

const (
	EndpointServer      EndpointType = "SERVER"
	EndpointWorkstation EndpointType = "WORKSTATION"
	EndpointLaptop      EndpointType = "LAPTOP"
	EndpointVM          EndpointType = "VM"
)

const (
	StatusProtected = "PROTECTED"
	StatusAtRisk    = "AT_RISK"
)

// Endpoint is a protected machine enrolled in the platform.
type Endpoint struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	Name             string       `json:"name" db:"name"`
	IPAddress        string       `json:"ip_address" db:"ip_address"`
	MACAddress       string       `json:"mac_address" db:"mac_address"`
	Hostname         string       `json:"hostname" db:"hostname"`
	OS               string       `json:"os" db:"os"`
	OSVersion        string       `json:"os_version" db:"os_version"`
	EndpointType     EndpointType `json:"endpoint_type" db:"endpoint_type"`
	Status           string       `json:"status" db:"status"`
	LastSeen         time.Time    `json:"last_seen" db:"last_seen"`
	ProtectionStatus string       `json:"protection_status" db:"protection_status"`
	RiskScore        float64      `json:"risk_score" db:"risk_score"`
}

type EndpointCreateDto struct {
	Name             string       `json:"name" validate:"required,max=200"`
	IPAddress        string       `json:"ip_address" validate:"omitempty,ip"`
	MACAddress       string       `json:"mac_address" validate:"omitempty,mac"`
	Hostname         string       `json:"hostname" validate:"omitempty,max=255"`
	OS               string       `json:"os" validate:"omitempty,max=100"`
	OSVersion        string       `json:"os_version" validate:"omitempty,max=50"`
	EndpointType     EndpointType `json:"endpoint_type" validate:"omitempty,oneof=SERVER WORKSTATION LAPTOP VM"`
	Status           string       `json:"status" validate:"omitempty,max=20"`
	ProtectionStatus string       `json:"protection_status" validate:"omitempty,max=20"`
	RiskScore        float64      `json:"risk_score" validate:"gte=0,lte=100"`
}

type EndpointsPaginatedList struct {
	Endpoints  []Endpoint `json:"endpoints"`
	TotalCount int        `json:"total_count"`
}
