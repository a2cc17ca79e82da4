package deliberation

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

const (
	// MaxExtractedChars caps the text kept from one attachment
	MaxExtractedChars = 50000

	// MaxAttachmentBytes caps the size of one upload
	MaxAttachmentBytes = 10 << 20
)

// FileUpload is a raw attachment received from a client
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var textTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/x-yaml":     true,
	"application/yaml":       true,
	"application/javascript": true,
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// extractAttachment classifies an upload and extracts the content agents see:
// decoded text for text types, a base64 data URL for images, nothing otherwise.
func extractAttachment(up FileUpload, now time.Time) entities.AttachedFile {
	contentType := detectContentType(up)
	f := entities.AttachedFile{
		ID:          uuid.New(),
		Filename:    filepath.Base(up.Filename),
		ContentType: contentType,
		Size:        int64(len(up.Data)),
		Kind:        entities.AttachmentBinary,
		UploadedAt:  now,
	}

	switch {
	case imageTypes[contentType]:
		f.Kind = entities.AttachmentImage
		f.Content = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(up.Data))
	case isTextType(contentType):
		f.Kind = entities.AttachmentText
		text := strings.ToValidUTF8(string(up.Data), "")
		if utf8.RuneCountInString(text) > MaxExtractedChars {
			text = truncateRunes(text, MaxExtractedChars)
			f.Truncated = true
		}
		f.Content = text
	}
	return f
}

// detectContentType trusts a specific declared type and sniffs the bytes otherwise
func detectContentType(up FileUpload) string {
	if declared, _, err := mime.ParseMediaType(up.ContentType); err == nil && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(up.Filename))); byExt != "" {
		if t, _, err := mime.ParseMediaType(byExt); err == nil {
			return t
		}
	}
	detected := mimetype.Detect(up.Data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return "text/plain"
		}
	}
	t, _, _ := mime.ParseMediaType(detected.String())
	return t
}

func isTextType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || textTypes[contentType]
}
