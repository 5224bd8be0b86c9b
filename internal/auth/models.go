package auth

// User is the persisted user record.
type User struct {
	Username string `json:"username"`
}

// Credentials is the body of POST /login and POST /register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse covers the token field names the backend has been seen to use.
type LoginResponse struct {
	JWT         string `json:"jwt"`
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

// pick returns the first non-empty token in jwt, token, accessToken order
// together with the field it came from.
func (r LoginResponse) pick() (string, string) {
	switch {
	case r.JWT != "":
		return r.JWT, "jwt"
	case r.Token != "":
		return r.Token, "token"
	case r.AccessToken != "":
		return r.AccessToken, "accessToken"
	}
	return "", ""
}
