package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

// MeetingFilters narrows a meeting listing
type MeetingFilters struct {
	OwnerID *uuid.UUID // nil lists every owner
	Status  *entities.MeetingStatus
	Limit   int
	Offset  int
}

// MeetingRepository defines the interface for meeting aggregate access
type MeetingRepository interface {
	// Create persists a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting with its diagnostic log in chronological order
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// List retrieves meetings newest-first
	List(ctx context.Context, filters MeetingFilters) ([]*entities.Meeting, int64, error)

	// Update replaces the deliberation state of a meeting. The diagnostic log is not touched.
	Update(ctx context.Context, meeting *entities.Meeting) error

	// Delete removes a meeting and its diagnostics
	Delete(ctx context.Context, id uuid.UUID) error

	// AppendDiagnostics adds entries to a meeting's append-only log
	AppendDiagnostics(ctx context.Context, entries []entities.DiagnosticLogEntry) error

	// ListDiagnostics returns a meeting's log in chronological order
	ListDiagnostics(ctx context.Context, meetingID uuid.UUID) ([]entities.DiagnosticLogEntry, error)
}
