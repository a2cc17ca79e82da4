package deliberation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

func TestAgentSystemPrompt(t *testing.T) {
	agent := entities.NewAgent("Maya", "CFO", "Guard the balance sheet.", entities.ExpertiseWeights{
		Finance: 0.9, Technology: 0.1, Operations: 0.3, PeopleHR: 0.25, Logistics: 0,
	}, "")

	got := agentSystemPrompt(agent)
	assert.True(t, strings.HasPrefix(got, "You are Maya, the CFO on a corporate Board of Directors."))
	assert.Contains(t, got, "Guard the balance sheet.")
	assert.Contains(t, got, "- Finance: 90%")
	assert.Contains(t, got, "- Logistics: 0%")
	assert.Contains(t, got, "Focus more on areas where your expertise weight is higher.")
	assert.Contains(t, got, `"confidence": 0.85`)
}

func TestAgentContent_DocumentsAndImages(t *testing.T) {
	agent := testAgents("CTO")[0]
	brief := Brief{
		Question: "Should we migrate?",
		Context:  "Legacy stack",
		Attachments: []entities.AttachedFile{
			{Filename: "plan.md", ContentType: "text/markdown", Kind: entities.AttachmentText, Content: strings.Repeat("x", 50)},
			{Filename: "chart.png", ContentType: "image/png", Kind: entities.AttachmentImage, Content: "data:image/png;base64,AAAA"},
			{Filename: "blob.bin", ContentType: "application/octet-stream", Kind: entities.AttachmentBinary},
		},
	}

	blocks := agentContent(agent, brief, 10)
	require.Len(t, blocks, 2)
	assert.Equal(t, ai.ContentText, blocks[0].Type)
	assert.Equal(t, ai.ContentImage, blocks[1].Type)
	assert.Equal(t, "data:image/png;base64,AAAA", blocks[1].ImageURL)

	text := blocks[0].Text
	assert.Contains(t, text, "QUESTION: Should we migrate?")
	assert.Contains(t, text, "ADDITIONAL CONTEXT: Legacy stack")
	assert.Contains(t, text, "=== COMPANY DOCUMENTS ===")
	assert.Contains(t, text, "--- plan.md (text/markdown) ---\n"+strings.Repeat("x", 10)+"\n")
	assert.NotContains(t, text, strings.Repeat("x", 11))
	assert.NotContains(t, text, "blob.bin")
	assert.True(t, strings.HasSuffix(text, "Please provide your professional opinion as the CTO role. Remember to respond with ONLY valid JSON."))
}

func TestAgentContent_NoContextNoDocuments(t *testing.T) {
	blocks := agentContent(testAgents("COO")[0], Brief{Question: "Q"}, 2000)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0].Text, "ADDITIONAL CONTEXT")
	assert.NotContains(t, blocks[0].Text, "COMPANY DOCUMENTS")
}

func TestChairContent_KeepsGivenOrder(t *testing.T) {
	opinions := []entities.AgentOpinion{
		{AgentName: "B", AgentRole: "CTO", Opinion: "ob", Reasoning: "rb", Confidence: 0.42},
		{AgentName: "A", AgentRole: "CFO", Opinion: "oa", Reasoning: "ra", Confidence: 1},
	}
	blocks := chairContent(Brief{Question: "Q?"}, opinions, 2000)
	require.Len(t, blocks, 1)
	got := blocks[0].Text

	assert.NotContains(t, got, "COMPANY DOCUMENTS")
	assert.Contains(t, got, "QUESTION PRESENTED TO THE BOARD:\nQ?")
	assert.Contains(t, got, "--- B (CTO) ---\nOpinion: ob\nReasoning: rb\nConfidence: 42%")
	assert.Less(t, strings.Index(got, "--- B"), strings.Index(got, "--- A"))
}

func TestAgentContent_CompanyDocumentsBeforeAttachments(t *testing.T) {
	brief := Brief{
		Question: "Raise prices?",
		Documents: []entities.CompanyFile{
			{Filename: "fy24.txt", FileType: "financial_statement", Content: "Revenue " + strings.Repeat("9", 40)},
			{Filename: "blank.txt", FileType: "report", Content: "   "},
		},
		Attachments: []entities.AttachedFile{
			{Filename: "survey.csv", ContentType: "text/csv", Kind: entities.AttachmentText, Content: "yes,no"},
		},
	}

	text := agentContent(testAgents("CFO")[0], brief, 12)[0].Text

	assert.Equal(t, 1, strings.Count(text, "=== COMPANY DOCUMENTS ==="))
	assert.Contains(t, text, "--- fy24.txt (financial_statement) ---\nRevenue 9999\n")
	assert.NotContains(t, text, "blank.txt")
	assert.Less(t, strings.Index(text, "fy24.txt"), strings.Index(text, "survey.csv"))
}

func TestChairContent_DocumentsAndImages(t *testing.T) {
	brief := Brief{
		Question:  "Q?",
		Documents: []entities.CompanyFile{{Filename: "deck.txt", FileType: "presentation", Content: "Growth plan"}},
		Attachments: []entities.AttachedFile{
			{Filename: "chart.png", ContentType: "image/png", Kind: entities.AttachmentImage, Content: "data:image/png;base64,AAAA"},
		},
	}
	opinions := []entities.AgentOpinion{{AgentName: "A", AgentRole: "CFO", Opinion: "oa", Confidence: 0.5}}

	blocks := chairContent(brief, opinions, 2000)

	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].Text, "--- deck.txt (presentation) ---\nGrowth plan\n")
	assert.Less(t, strings.Index(blocks[0].Text, "BOARD MEMBER OPINIONS"), strings.Index(blocks[0].Text, "COMPANY DOCUMENTS"))
	assert.Equal(t, ai.ContentImage, blocks[1].Type)
	assert.Equal(t, "data:image/png;base64,AAAA", blocks[1].ImageURL)
}

func TestFollowUpContent_IncludesAnsweredPriorTurns(t *testing.T) {
	fc := FollowUpContext{
		Question:       "Expand to Asia?",
		Recommendation: "Yes, in phases",
		Opinions:       []entities.AgentOpinion{{AgentName: "Maya", AgentRole: "CFO", Opinion: "Fund it"}},
		Prior: []entities.FollowUpQuestion{
			{Question: "Which country first?", ChairResponse: "Singapore"},
			{Question: "Unanswered?", ChairResponse: ""},
		},
	}
	got := followUpContent(fc, "What budget?")

	assert.Contains(t, got, "ORIGINAL BOARD RECOMMENDATION:\nYes, in phases")
	assert.Contains(t, got, "- Maya (CFO): Fund it")
	assert.Contains(t, got, "Q1: Which country first?\nA1: Singapore")
	assert.NotContains(t, got, "Unanswered?")
	assert.Contains(t, got, "FOLLOW-UP QUESTION:\nWhat budget?")
}
