package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInvalidOldPassword is returned when the provided old password does not match the member's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrMemberNameOrEmailExists is returned when attempting to create a member with a username or email that already exists.
	ErrMemberNameOrEmailExists = errors.New("member with username or email already exists")

	// ErrMemberAccountDisabled is returned when attempting to authenticate a disabled member account.
	ErrMemberAccountDisabled = errors.New("member account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrMemberNotFound is returned when a member cannot be found in the database.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTOTPRequired is returned when a member with the second factor enabled
	// authenticates without providing a TOTP code.
	ErrTOTPRequired = errors.New("totp code required")

	// ErrTOTPInvalid is returned when the provided TOTP code does not verify.
	ErrTOTPInvalid = errors.New("invalid totp code")

	// ErrTOTPNotEnabled is returned when a TOTP operation targets a member
	// without the second factor enabled.
	ErrTOTPNotEnabled = errors.New("totp is not enabled for this member")
)
