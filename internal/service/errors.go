package service

import "errors"

var (
	ErrThreadNotFound     = errors.New("thread not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTargetNotFound     = errors.New("vote or bookmark target not found")
	ErrForbidden          = errors.New("only the author can change this resource")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflicting concurrent change")
	ErrOverwriteDisabled  = errors.New("direct upvote overwrite is disabled")
)
