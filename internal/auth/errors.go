package auth

// Error codes returned by the service. Codes are stable API; clients
// key their own copy on them, so changing one is a breaking change.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInvalidToken      = "auth/invalid-token"
)

var messages = map[string]string{
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeWeakPassword:      "Password must be at least 6 characters.",
	CodeEmailInUse:        "This email is already registered.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password.",
	CodeInvalidCredential: "Invalid email or password.",
	CodeInvalidToken:      "Your session has expired. Please sign in again.",
}

// GenericMessage is shown for codes without a friendly mapping.
const GenericMessage = "Something went wrong. Please try again."

// Error is an authentication failure with a stable machine code and a
// user-facing message.
type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Message returns the user-facing text for the error's code.
func (e *Error) Message() string {
	if msg, ok := messages[e.Code]; ok {
		return msg
	}
	return GenericMessage
}

func newError(code string) *Error {
	return &Error{Code: code}
}
