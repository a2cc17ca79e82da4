package presenter

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/johnquangdev/boardroom/internal/adapter/dto/meeting"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	history := make([]meeting.VersionResponse, len(m.OpinionHistory))
	for i, v := range m.OpinionHistory {
		history[i] = ToVersionResponse(v)
	}
	files := make([]meeting.AttachmentResponse, len(m.AttachedFiles))
	for i, f := range m.AttachedFiles {
		files[i] = ToAttachmentResponse(f)
	}

	return &meeting.MeetingResponse{
		ID:                  m.ID.String(),
		OwnerID:             m.OwnerID.String(),
		Question:            m.Question,
		Context:             m.Context,
		Status:              string(m.Status),
		CurrentVersion:      m.CurrentVersion,
		Opinions:            toOpinions(m.Opinions),
		ChairSummary:        m.ChairSummary,
		ChairRecommendation: m.ChairRecommendation,
		FollowUps:           toFollowUps(m.FollowUps),
		OpinionHistory:      history,
		AttachedFiles:       files,
		TotalTokensUsed:     m.TotalTokensUsed,
		GeneratedAt:         m.GeneratedAt,
		GeneratedBy:         idString(m.GeneratedBy),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		CompletedAt:         m.CompletedAt,
	}
}

// ToMeetingSummaries converts meetings for a listing
func ToMeetingSummaries(ms []*entities.Meeting) []meeting.MeetingSummaryResponse {
	out := make([]meeting.MeetingSummaryResponse, len(ms))
	for i, m := range ms {
		out[i] = meeting.MeetingSummaryResponse{
			ID:             m.ID.String(),
			Question:       m.Question,
			Status:         string(m.Status),
			CurrentVersion: m.CurrentVersion,
			OpinionCount:   len(m.Opinions),
			FollowUpCount:  len(m.FollowUps),
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
		}
	}
	return out
}

// ToVersionResponse converts an OpinionVersion snapshot
func ToVersionResponse(v entities.OpinionVersion) meeting.VersionResponse {
	return meeting.VersionResponse{
		Version:             v.Version,
		Opinions:            toOpinions(v.Opinions),
		ChairSummary:        v.ChairSummary,
		ChairRecommendation: v.ChairRecommendation,
		FollowUps:           toFollowUps(v.FollowUps),
		GeneratedAt:         v.GeneratedAt,
		GeneratedBy:         idString(v.GeneratedBy),
	}
}

// ToVersionList converts a whole history
func ToVersionList(vs []entities.OpinionVersion) []meeting.VersionResponse {
	out := make([]meeting.VersionResponse, len(vs))
	for i, v := range vs {
		out[i] = ToVersionResponse(v)
	}
	return out
}

// ToFollowUpResponse converts a follow-up turn
func ToFollowUpResponse(fu entities.FollowUpQuestion) meeting.FollowUpResponse {
	return meeting.FollowUpResponse{
		ID:            fu.ID.String(),
		Question:      fu.Question,
		ChairResponse: fu.ChairResponse,
		Version:       fu.Version,
		CreatedAt:     fu.CreatedAt,
	}
}

// ToAttachmentResponse converts an attachment, dropping its extracted content
func ToAttachmentResponse(f entities.AttachedFile) meeting.AttachmentResponse {
	return meeting.AttachmentResponse{
		ID:          f.ID.String(),
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
		Kind:        string(f.Kind),
		Truncated:   f.Truncated,
		Stored:      f.ObjectKey != "",
		UploadedAt:  f.UploadedAt,
	}
}

// ToDiagnostics converts diagnostic entries, keeping their order
func ToDiagnostics(entries []entities.DiagnosticLogEntry) []meeting.DiagnosticResponse {
	out := make([]meeting.DiagnosticResponse, len(entries))
	for i, e := range entries {
		out[i] = meeting.DiagnosticResponse{
			ID:        e.ID.String(),
			Level:     string(e.Level),
			AgentID:   e.AgentID,
			AgentName: e.AgentName,
			Message:   e.Message,
			Timestamp: e.Timestamp,
		}
		if len(e.Details) > 0 {
			out[i].Details = json.RawMessage(e.Details)
		}
	}
	return out
}

func toOpinions(ops []entities.AgentOpinion) []meeting.OpinionResponse {
	out := make([]meeting.OpinionResponse, len(ops))
	for i, op := range ops {
		out[i] = meeting.OpinionResponse{
			AgentID:    op.AgentID.String(),
			AgentName:  op.AgentName,
			AgentRole:  op.AgentRole,
			Opinion:    op.Opinion,
			Reasoning:  op.Reasoning,
			Confidence: op.Confidence,
			WeightsApplied: meeting.WeightsResponse{
				Finance:    op.WeightsApplied.Finance,
				Technology: op.WeightsApplied.Technology,
				Operations: op.WeightsApplied.Operations,
				PeopleHR:   op.WeightsApplied.PeopleHR,
				Logistics:  op.WeightsApplied.Logistics,
			},
			ModelUsed:  op.ModelUsed,
			TokensUsed: op.TokensUsed,
			Timestamp:  op.Timestamp,
		}
	}
	return out
}

func toFollowUps(fus []entities.FollowUpQuestion) []meeting.FollowUpResponse {
	out := make([]meeting.FollowUpResponse, len(fus))
	for i, fu := range fus {
		out[i] = ToFollowUpResponse(fu)
	}
	return out
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
