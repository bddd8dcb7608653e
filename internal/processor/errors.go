package processor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a decoded processor API error response.
type Error struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processor: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("processor: request failed with status %d", e.StatusCode)
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error APIErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &Error{StatusCode: status, Message: string(body)}
	}
	return &Error{
		StatusCode: status,
		Type:       envelope.Error.Type,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
	}
}

// IsAPIError reports whether err originated from a processor error response,
// as opposed to a transport failure, and returns it when so.
func IsAPIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
