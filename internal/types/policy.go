package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

type PolicyType string

const (
	PolicyRansomware PolicyType = "RANSOMWARE"
	PolicyNetwork    PolicyType = "NETWORK"
	PolicyWeb        PolicyType = "WEB"
	PolicyBehavioral PolicyType = "BEHAVIORAL"
)

type SecurityPolicy struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	PolicyType PolicyType      `json:"policy_type" db:"policy_type"`
	Settings   json.RawMessage `json:"settings" db:"settings"`
	IsActive   bool            `json:"is_active" db:"is_active"`
}
