package command

import "github.com/devilbiswajit/VideoStream/internal/application/common"

type UpdateAccountCommand struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type UpdateAccountCommandResult struct {
	User *common.UserResult `json:"user"`
}
