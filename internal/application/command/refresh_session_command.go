package command

// RefreshSessionCommand presents the refresh token, read once by the
// delivery layer from cookie or body.
type RefreshSessionCommand struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshSessionCommandResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
