package command

import "github.com/devilbiswajit/VideoStream/internal/application/common"

// RegisterUserCommand carries the multipart registration input. The local
// paths point at files the delivery layer already spooled to the temp dir.
type RegisterUserCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`

	AvatarLocalPath     string `json:"-"`
	CoverImageLocalPath string `json:"-"`
}

type RegisterUserCommandResult struct {
	User *common.UserResult `json:"user"`
}
