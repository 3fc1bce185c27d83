package types

import "time"

// Device is an inventoried host shown on the admin page.
type Device struct {
	ID        int64     `json:"id" db:"id"`
	Hostname  string    `json:"hostname" db:"hostname"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	OS        string    `json:"os" db:"os"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
	Active    bool      `json:"active" db:"active"`
}

type DeviceCreateDto struct {
	Hostname  string `json:"hostname" validate:"required,max=128"`
	IPAddress string `json:"ip_address" validate:"omitempty,ip,max=64"`
	OS        string `json:"os" validate:"omitempty,max=128"`
	Active    *bool  `json:"active"`
}

// using references on struct fields allows us to process partially filled DTOs
type DeviceUpdateDto struct {
	Hostname  *string `json:"hostname" validate:"omitempty,min=1,max=128"`
	IPAddress *string `json:"ip_address" validate:"omitempty,max=64"`
	OS        *string `json:"os" validate:"omitempty,max=128"`
	Active    *bool   `json:"active"`
}

type DeviceList struct {
	Devices []Device `json:"devices"`
}
