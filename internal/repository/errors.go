package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrMemberNotFound is returned when a user is not a member of the workspace
	ErrMemberNotFound = errors.New("workspace member not found")

	// ErrOwnerRoleChange is returned when an owner's membership would lose its role
	ErrOwnerRoleChange = errors.New("workspace owner role cannot be changed")
)
