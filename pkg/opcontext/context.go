package opcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyMeetingID KeyContext = "meeting_id"
	keyOperation KeyContext = "operation"
	keyActorID   KeyContext = "actor_id"
	keyOwnerID   KeyContext = "owner_id"
	keyStartTime KeyContext = "operation_start_time"
)

// Operation names used for logging, metrics and usage attribution
const (
	OpCreate     = "create"
	OpRegenerate = "regenerate"
	OpRestore    = "restore"
	OpFollowUp   = "follow_up"
)

// Metadata describes the deliberation operation running under a context
type Metadata struct {
	MeetingID uuid.UUID
	Operation string
	ActorID   uuid.UUID
	OwnerID   uuid.UUID
	StartTime time.Time
}

// Begin attaches operation metadata to ctx. A positive timeout bounds the
// whole operation; zero leaves the parent deadline in place.
func Begin(parent context.Context, md Metadata, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := parent, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	}
	if md.StartTime.IsZero() {
		md.StartTime = time.Now()
	}

	ctx = context.WithValue(ctx, keyMeetingID, md.MeetingID)
	ctx = context.WithValue(ctx, keyOperation, md.Operation)
	ctx = context.WithValue(ctx, keyActorID, md.ActorID)
	ctx = context.WithValue(ctx, keyOwnerID, md.OwnerID)
	ctx = context.WithValue(ctx, keyStartTime, md.StartTime)
	return ctx, cancel
}

// GetMeetingID extracts the meeting ID from context
func GetMeetingID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyMeetingID).(uuid.UUID)
	return id, ok
}

// GetOperation extracts the operation name from context
func GetOperation(ctx context.Context) string {
	op, _ := ctx.Value(keyOperation).(string)
	return op
}

// GetActorID extracts the acting user from context
func GetActorID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyActorID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetOwnerID extracts the meeting owner from context
func GetOwnerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyOwnerID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Elapsed returns time since the operation began
func Elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(keyStartTime).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// GetMetadata extracts all operation metadata from context
func GetMetadata(ctx context.Context) Metadata {
	meetingID, _ := GetMeetingID(ctx)
	actorID, _ := GetActorID(ctx)
	ownerID, _ := GetOwnerID(ctx)
	start, _ := ctx.Value(keyStartTime).(time.Time)
	return Metadata{
		MeetingID: meetingID,
		Operation: GetOperation(ctx),
		ActorID:   actorID,
		OwnerID:   ownerID,
		StartTime: start,
	}
}
