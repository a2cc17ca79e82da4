package meeting

// CreateMeetingRequest is the JSON or multipart body of POST /meetings.
// Multipart requests carry attachments in the "files" field.
type CreateMeetingRequest struct {
	Question string  `json:"question" form:"question" validate:"required,notblank,max=10000"`
	Context  *string `json:"context,omitempty" form:"context" validate:"omitempty,max=20000"`
}

// FollowUpRequest is the body of POST /meetings/:id/follow-ups
type FollowUpRequest struct {
	Question string `json:"question" validate:"required,notblank,max=4000"`
}

// ListMeetingsRequest represents query parameters for listing meetings
type ListMeetingsRequest struct {
	Page     int `query:"page" validate:"min=1"`
	PageSize int `query:"page_size" validate:"min=1,max=100"`
}
