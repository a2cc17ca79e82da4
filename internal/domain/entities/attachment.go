package entities

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentKind says how an attachment's content reaches the agents
type AttachmentKind string

const (
	AttachmentText   AttachmentKind = "text"   // Content holds extracted text
	AttachmentImage  AttachmentKind = "image"  // Content holds a base64 data URL
	AttachmentBinary AttachmentKind = "binary" // Stored only, not extracted
)

// AttachedFile references an uploaded file and its extracted content
type AttachedFile struct {
	ID          uuid.UUID      `json:"id"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	Kind        AttachmentKind `json:"kind"`
	ObjectKey   string         `json:"object_key,omitempty"`
	Content     string         `json:"content,omitempty"`
	Truncated   bool           `json:"truncated,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
}

// IsImage reports whether the attachment is sent as an image content part
func (f AttachedFile) IsImage() bool {
	return f.Kind == AttachmentImage && f.Content != ""
}

// HasText reports whether the attachment contributes text context
func (f AttachedFile) HasText() bool {
	return f.Kind == AttachmentText && f.Content != ""
}
