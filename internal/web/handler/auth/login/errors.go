package login

import "errors"

var (
	// ErrInvalidFormData is returned when the request body cannot be parsed.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is returned when the username or password is wrong.
	// The two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrLocalAuthDisabled is returned when local database login is disabled
	// via configuration.
	ErrLocalAuthDisabled = errors.New("local authentication is disabled")

	// ErrTOTPCodeRequired is returned when the account requires a second
	// factor and no code was provided.
	ErrTOTPCodeRequired = errors.New("totp code required")
)
