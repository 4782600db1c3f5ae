package models

// UserInfo is the identity returned by the provider's userinfo endpoint.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Picture       string `json:"picture"`
}

// TokenResponse is the result of a successful code exchange, enriched with
// the verified identity of the user.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int64    `json:"expires_in"`
	Scope        string   `json:"scope"`
	TokenType    string   `json:"token_type"`
	User         UserInfo `json:"user"`
}
