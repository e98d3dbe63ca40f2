package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Market data gateway error codes
const (
	CodeGatewayRequestFailed      Code = "GATEWAY_REQUEST_FAILED"
	CodeGatewayMalformedResponse  Code = "GATEWAY_MALFORMED_RESPONSE"
	CodeGatewayUnparseableContent Code = "GATEWAY_UNPARSEABLE_CONTENT"
	CodeGatewayBlocked            Code = "GATEWAY_BLOCKED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)

// Dashboard error codes
const (
	CodeRefreshInFlight   Code = "REFRESH_IN_FLIGHT"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeFeedClosed        Code = "FEED_CLOSED"
	CodeFeedConnection    Code = "FEED_CONNECTION_ERROR"
)

// gatewayCodes are the codes that make up a GatewayError.
var gatewayCodes = map[Code]bool{
	CodeGatewayRequestFailed:      true,
	CodeGatewayMalformedResponse:  true,
	CodeGatewayUnparseableContent: true,
	CodeGatewayBlocked:            true,
	CodeCircuitOpen:               true,
	CodeCircuitHalfOpen:           true,
	CodeServiceTimeout:            true,
}
