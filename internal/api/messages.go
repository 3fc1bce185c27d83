package api

const (
	MsgMissingAuthHeader = "Missing authorization header"
	MsgInvalidAuthHeader = "Invalid authorization header format"
	MsgUnauthorized      = "Unauthorized"
	MsgInternalError     = "An internal error occurred"

	msgRequestParseFailed = "Failed to parse request"
	msgValidationFailed   = "Request validation failed"
	msgInvalidID          = "Invalid id"
	msgNotFound           = "Resource not found"
	msgFeatureDisabled    = "Feature is disabled"
	msgScansUnavailable   = "Background scans are not configured"
	msgScanInProgress     = "Scan is still in progress"
	msgScanFailed         = "Scan failed"
	msgReportsUnavailable = "Report storage is not configured"

	msgFeatureNotFound = "Feature not found"
	msgMissingEnabled  = "Missing 'enabled' in request body"
	msgInvalidEnabled  = "Invalid 'enabled' value in request body"
)
