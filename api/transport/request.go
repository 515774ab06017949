package transport

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate reports the first missing field, or "" when the request is complete.
func (r LoginRequest) Validate() string {
	switch {
	case r.Username == "":
		return "username is required"
	case r.Password == "":
		return "password is required"
	default:
		return ""
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
