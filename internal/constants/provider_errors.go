package constants

// Remote API Error Codes
// These constants define specific error scenarios for the Beds24 client

const (
	ErrCodeNetworkError   = "NETWORK_ERROR"
	ErrCodeRemoteRejected = "REMOTE_REJECTED"
	ErrCodeInvalidToken   = "INVALID_TOKEN"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeBadRequest     = "BAD_REQUEST"
)

// Human-readable messages corresponding to error codes

var ProviderErrorMessages = map[string]string{
	ErrCodeNetworkError:   "Unable to reach the Beds24 API",
	ErrCodeRemoteRejected: "The Beds24 API rejected the request",
	ErrCodeInvalidToken:   "The Beds24 API token is invalid or has been revoked",
	ErrCodeRateLimited:    "Rate limit exceeded. Please try again later",
	ErrCodeBadRequest:     "The Beds24 API could not process the request parameters",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
