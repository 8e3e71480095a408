package config

type AsanaConfig interface {
	GetAsanaClientID() string
	GetAsanaClientSecret() string
	GetAsanaRedirectURI() string
	GetAsanaAuthURL() string
	GetAsanaTokenURL() string
	GetAsanaRevokeURL() string
	GetAsanaAPIBaseURL() string
}

type Asana struct{}

var _ AsanaConfig = Asana{}

func (Asana) GetAsanaClientID() string {
	return GetEnv("ASANA_CLIENT_ID", "")
}

func (Asana) GetAsanaClientSecret() string {
	return GetEnv("ASANA_CLIENT_SECRET", "")
}

// GetAsanaRedirectURI returns the OAuth callback URL registered with the
// Asana application. Must match the app registration exactly.
func (Asana) GetAsanaRedirectURI() string {
	return GetEnv("ASANA_REDIRECT_URI", EnvVars{}.GetBaseURL()+"/oauth/callback")
}

func (Asana) GetAsanaAuthURL() string {
	return GetEnv("ASANA_AUTH_URL", "https://app.asana.com/-/oauth_authorize")
}

func (Asana) GetAsanaTokenURL() string {
	return GetEnv("ASANA_TOKEN_URL", "https://app.asana.com/-/oauth_token")
}

func (Asana) GetAsanaRevokeURL() string {
	return GetEnv("ASANA_REVOKE_URL", "https://app.asana.com/-/oauth_revoke")
}

func (Asana) GetAsanaAPIBaseURL() string {
	return GetEnv("ASANA_API_BASE_URL", "https://app.asana.com/api/1.0")
}
