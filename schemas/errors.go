package schemas

import "fmt"

// ErrorClass identifies which branch of the error taxonomy in spec.md §7 a
// GatewayError belongs to.
type ErrorClass string

const (
	// ErrorClassConfiguration covers missing/invalid credentials, unknown
	// region, or unknown marketplace (reported by Credentials.Validate and
	// config.Load), and an unknown action or unsupported HTTP method
	// reported while Gateway.Invoke prepares a call.
	ErrorClassConfiguration ErrorClass = "configuration"
	// ErrorClassTransport covers HTTP errors, timeouts, and DNS failures.
	// Transport errors propagate to the caller unchanged; the throttler's
	// pending counter is still released.
	ErrorClassTransport ErrorClass = "transport"
	// ErrorClassAmazon covers a well-formed Amazon <ErrorResponse> envelope.
	// The call still counts against quota and is never cached.
	ErrorClassAmazon ErrorClass = "amazon"
	// ErrorClassParse covers malformed XML bodies that fail to parse after
	// namespace stripping.
	ErrorClassParse ErrorClass = "parse"
	// ErrorClassThrottle labels a failed Throttler.Acquire (a cancelled wait
	// or a kvstore error) in the gateway's error metrics; no GatewayError
	// carries it. An unknown action passed to the throttler is not an
	// error: it passes through unthrottled.
	ErrorClassThrottle ErrorClass = "throttle"
)

// GatewayError is the error type returned across package boundaries. It
// carries enough structure that callers can branch on class without string
// matching, mirroring the teacher's BifrostError shape (a classed error
// wrapping an underlying cause).
type GatewayError struct {
	Class   ErrorClass
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

func newError(class ErrorClass, msg string, cause error) *GatewayError {
	return &GatewayError{Class: class, Message: msg, Cause: cause}
}

// NewConfigurationError wraps a construction-time validation failure.
func NewConfigurationError(msg string, cause error) *GatewayError {
	return newError(ErrorClassConfiguration, msg, cause)
}

// NewTransportError wraps an HTTP transport failure (connection reset,
// timeout, DNS failure).
func NewTransportError(msg string, cause error) *GatewayError {
	return newError(ErrorClassTransport, msg, cause)
}

// NewParseError wraps an XML parse failure.
func NewParseError(msg string, cause error) *GatewayError {
	return newError(ErrorClassParse, msg, cause)
}

// AmazonError represents a well-formed Amazon <ErrorResponse> envelope,
// normalized into the {"error": {...}} shape callers branch on without
// needing GatewayError plumbing at every call site (spec.md §7).
type AmazonError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// NewAmazonError constructs an AmazonError from the fields xmlnorm recovers
// out of a parsed <ErrorResponse> envelope.
func NewAmazonError(code, message, requestID string) *AmazonError {
	return &AmazonError{Code: code, Message: message, RequestID: requestID}
}

// AsJSON returns the {"error": {...}} envelope spec.md §4.2/§4.4 requires.
func (e *AmazonError) AsJSON() map[string]any {
	return map[string]any{
		"error": map[string]string{
			"code":       e.Code,
			"message":    e.Message,
			"request_id": e.RequestID,
		},
	}
}
