package sheets

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/teemow/sheetgate/internal/google"
)

// ConfigurationError is returned when the credential cannot be built.
type ConfigurationError = google.ConfigurationError

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool {
	return google.IsConfigurationError(err)
}

// AuthorizationError is returned when the credential handshake fails. The
// client stays unauthorized and the next operation retries the handshake.
type AuthorizationError struct {
	Err error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: %v", e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// IsAuthorizationError reports whether err is an *AuthorizationError.
func IsAuthorizationError(err error) bool {
	var authErr *AuthorizationError
	return errors.As(err, &authErr)
}

// RemoteServiceError is returned when an operation fails after successful
// authorization. Code and Message are the service's status and message when
// it provided them.
type RemoteServiceError struct {
	Operation string
	Code      int
	Message   string
	Err       error
}

func (e *RemoteServiceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sheets %s failed with status %d: %s", e.Operation, e.Code, e.Message)
	}
	return fmt.Sprintf("sheets %s failed: %s", e.Operation, e.Message)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// IsRemoteServiceError reports whether err is a *RemoteServiceError.
func IsRemoteServiceError(err error) bool {
	var remoteErr *RemoteServiceError
	return errors.As(err, &remoteErr)
}

func newRemoteServiceError(operation string, err error) *RemoteServiceError {
	remoteErr := &RemoteServiceError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		remoteErr.Code = apiErr.Code
		if apiErr.Message != "" {
			remoteErr.Message = apiErr.Message
		}
	}
	return remoteErr
}
