package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create persists a new meeting
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// FindByID retrieves a meeting and its diagnostic log
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Preload("DiagnosticLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("logged_at ASC, sequence ASC")
		}).
		Where("id = ?", id).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

// List retrieves meetings newest-first
func (r *meetingRepository) List(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	var meetings []*entities.Meeting
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Meeting{})
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&meetings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

// Update saves the deliberation state of a meeting
func (r *meetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(meeting)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting: %w", result.Error)
	}
	return nil
}

// Delete removes a meeting and its diagnostics
func (r *meetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&entities.DiagnosticLogEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete diagnostics: %w", err)
		}
		result := tx.Delete(&entities.Meeting{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete meeting: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrMeetingNotFound
		}
		return nil
	})
}

// AppendDiagnostics inserts entries into the append-only log
func (r *meetingRepository) AppendDiagnostics(ctx context.Context, entries []entities.DiagnosticLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(entries, 100).Error; err != nil {
		return fmt.Errorf("failed to append diagnostics: %w", err)
	}
	return nil
}

// ListDiagnostics returns a meeting's log in chronological order
func (r *meetingRepository) ListDiagnostics(ctx context.Context, meetingID uuid.UUID) ([]entities.DiagnosticLogEntry, error) {
	var entries []entities.DiagnosticLogEntry
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("logged_at ASC, sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	return entries, nil
}
