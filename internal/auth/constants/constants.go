package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// DefaultCookieName carries the session credential
	DefaultCookieName = "gtoken"
)

// Routes served by the auth package.
const (
	RouteAuthorize = "/google-auth"
	RouteCallback  = "/google-auth/callback"
)

// Provider callback parameters and error tags used on the landing page.
const (
	ParamCode  = "code"
	ParamError = "error"
	ParamState = "state"

	ProviderAccessDenied = "access_denied"

	ErrorTagAccessDenied = "gaccess_denied"
	ErrorTagAccessError  = "gaccess_error"
)

// Response bodies the callback answers with directly.
const (
	MsgInvalidRequest   = "Invalid request. Please try again."
	MsgUnverifiedEmail  = "Please verify your email with Google first and try again."
	MsgSignInFailed     = "Sign-in failed, please try again."
	MsgMethodNotAllowed = "Method not allowed"
)

// TasksScope grants read/write access to the user's Google Tasks.
const TasksScope = "https://www.googleapis.com/auth/tasks"

// DefaultScopes requested on the consent screen.
var DefaultScopes = []string{"openid", "email", "profile", TasksScope}
