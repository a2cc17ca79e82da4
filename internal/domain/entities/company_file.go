package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCompanyFiles caps how many of an owner's documents join one deliberation
const MaxCompanyFiles = 20

// CompanyFile is a reference document an owner keeps for every meeting,
// such as a financial statement or a strategy deck. Content is the
// extracted text.
type CompanyFile struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Filename    string    `json:"filename" gorm:"type:varchar(255);not null"`
	FileType    string    `json:"file_type" gorm:"type:varchar(100);not null"` // e.g. financial_statement, presentation, report
	Content     string    `json:"content" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewCompanyFile creates a company document for an owner
func NewCompanyFile(ownerID uuid.UUID, filename, fileType, content string, description *string) *CompanyFile {
	return &CompanyFile{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Filename:    strings.TrimSpace(filename),
		FileType:    strings.TrimSpace(fileType),
		Content:     content,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// Validate checks the document can be shown to the board
func (f *CompanyFile) Validate() error {
	if f.OwnerID == uuid.Nil || f.Filename == "" || f.FileType == "" || strings.TrimSpace(f.Content) == "" {
		return ErrInvalidCompanyFile
	}
	return nil
}

// TableName specifies the table name for GORM
func (CompanyFile) TableName() string {
	return "company_files"
}
