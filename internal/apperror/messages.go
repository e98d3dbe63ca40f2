package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Gateway
	CodeGatewayRequestFailed:      "Market data gateway request failed",
	CodeGatewayMalformedResponse:  "Market data gateway returned a malformed response",
	CodeGatewayUnparseableContent: "Could not parse market data from gateway content",
	CodeGatewayBlocked:            "Market data gateway blocked the prompt",
	CodeCircuitOpen:               "Circuit breaker is open",
	CodeCircuitHalfOpen:           "Circuit breaker is half-open",

	// Dashboard
	CodeRefreshInFlight:   "A refresh is already in progress",
	CodeInvalidTransition: "Invalid view state transition",
	CodeFeedClosed:        "State feed is closed",
	CodeFeedConnection:    "State feed connection error",
}
