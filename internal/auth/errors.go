package auth

import "net/http"

// Kind classifies auth failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindConflict
	KindStorage
)

// User-facing messages.
const (
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgMissingFields    = "Please fill in all required fields."
	MsgBadCredentials   = "Incorrect email or password."
	MsgPasswordShort    = "Password must be at least 8 characters long."
	MsgPasswordLong     = "Password must be at most 72 bytes long."
	MsgPasswordMismatch = "Passwords do not match."
	MsgEmailTaken       = "Email already in use. Please use a different email or login."
	MsgSignupFailed     = "Registration failed. Please try again."
	MsgLoginFailed      = "Something went wrong. Please try again."
	MsgLoginOK          = "Login successful!"
	MsgSignupOK         = "Registration successful!"
	MsgLoggedOut        = "You have been logged out."
)

// Error is returned by Service methods. Message is safe to show to the user;
// Err, when set, is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
