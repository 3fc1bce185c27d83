package api

import "time"

const apiVersion = "1.0.0"

type APIResponse[T any] struct {
	Data      T             `json:"data,omitempty"`
	Error     ErrorResponse `json:"error"`
	Status    int           `json:"status,omitempty"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
}

type ErrorResponse struct {
	Message          string `json:"message"`
	DetailedResponse string `json:"details,omitempty"`
}

// DetailResponse is the error body of the feature endpoints.
type DetailResponse struct {
	Detail string `json:"detail"`
}

type FeaturesResponse struct {
	Features map[string]FeatureView `json:"features"`
}

type FeatureView struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type FeatureUpdated struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

type ServicesStatus struct {
	Services map[string]bool `json:"services"`
}

func NewErrorResponseWithMessage(message string) APIResponse[interface{}] {
	return APIResponse[interface{}]{
		Error: ErrorResponse{
			Message: message,
		},
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   apiVersion,
	}
}

func NewErrorResponseWithDetails(message, details string) APIResponse[interface{}] {
	resp := NewErrorResponseWithMessage(message)
	resp.Error.DetailedResponse = details
	return resp
}

func NewSuccessResponse[T any](code int, data T) APIResponse[T] {
	return APIResponse[T]{
		Status:    code,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   apiVersion,
	}
}
