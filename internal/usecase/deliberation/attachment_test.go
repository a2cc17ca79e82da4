package deliberation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

func TestExtractAttachment(t *testing.T) {
	now := time.Now()

	text := extractAttachment(FileUpload{Filename: "notes.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("quarterly numbers")}, now)
	assert.Equal(t, entities.AttachmentText, text.Kind)
	assert.Equal(t, "text/plain", text.ContentType)
	assert.Equal(t, "quarterly numbers", text.Content)
	assert.False(t, text.Truncated)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	img := extractAttachment(FileUpload{Filename: "chart.png", ContentType: "image/png", Data: png}, now)
	assert.Equal(t, entities.AttachmentImage, img.Kind)
	assert.True(t, strings.HasPrefix(img.Content, "data:image/png;base64,"))

	bin := extractAttachment(FileUpload{Filename: "deck.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, now)
	assert.Equal(t, entities.AttachmentBinary, bin.Kind)
	assert.Empty(t, bin.Content)
}

func TestExtractAttachment_TruncatesLongText(t *testing.T) {
	f := extractAttachment(FileUpload{Filename: "big.csv", ContentType: "text/csv", Data: []byte(strings.Repeat("a", MaxExtractedChars+10))}, time.Now())
	assert.True(t, f.Truncated)
	assert.Len(t, f.Content, MaxExtractedChars)
	assert.Equal(t, int64(MaxExtractedChars+10), f.Size)
}

func TestExtractAttachment_SniffsUndeclaredText(t *testing.T) {
	f := extractAttachment(FileUpload{Filename: "README", Data: []byte("plain words only")}, time.Now())
	assert.Equal(t, entities.AttachmentText, f.Kind)
	assert.Equal(t, "README", f.Filename)
}
