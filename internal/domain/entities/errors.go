package entities

import "errors"

// Domain errors
var (
	// Roster errors
	ErrInvalidAgent       = errors.New("invalid agent")
	ErrInvalidChair       = errors.New("invalid chair")
	ErrInvalidWeight      = errors.New("invalid expertise weight")
	ErrChairNotConfigured = errors.New("chair is not configured")

	// Meeting lifecycle errors
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrMeetingNotCompleted = errors.New("meeting is not completed")
	ErrVersionNotFound     = errors.New("version not found in history")
	ErrRestoreCurrent      = errors.New("version is already current")
	ErrIncompleteOutcome   = errors.New("outcome needs at least one opinion and non-empty chair summary and recommendation")
	ErrEmptyFollowUp       = errors.New("follow-up question is empty")
	ErrAttachmentNotFound  = errors.New("attachment not found")
	ErrInvalidCompanyFile  = errors.New("company file needs an owner, filename, type and content")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidUser  = errors.New("invalid user")
	ErrInvalidRole  = errors.New("invalid role")
)
