package opcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin_CarriesMetadata(t *testing.T) {
	md := Metadata{MeetingID: uuid.New(), Operation: OpRegenerate, ActorID: uuid.New(), OwnerID: uuid.New()}

	ctx, cancel := Begin(context.Background(), md, 0)
	defer cancel()

	got := GetMetadata(ctx)
	assert.Equal(t, md.MeetingID, got.MeetingID)
	assert.Equal(t, OpRegenerate, got.Operation)
	assert.Equal(t, md.ActorID, got.ActorID)
	assert.Equal(t, md.OwnerID, got.OwnerID)
	assert.False(t, got.StartTime.IsZero())
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
}

func TestBegin_Timeout(t *testing.T) {
	ctx, cancel := Begin(context.Background(), Metadata{Operation: OpCreate}, time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetMeetingID(ctx)
	assert.False(t, ok)
	_, ok = GetActorID(ctx)
	assert.False(t, ok)
	assert.Equal(t, "", GetOperation(ctx))
	assert.Zero(t, Elapsed(ctx))
}
