package command

import "github.com/devilbiswajit/VideoStream/internal/application/common"

// LoginUserCommand accepts either username or email alongside the password.
type LoginUserCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUserCommandResult struct {
	User         *common.UserResult `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}
