package deliberation

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

const opinionFormat = `You MUST respond with ONLY a valid JSON object (no markdown, no explanation before or after) in this exact structure:
{
    "opinion": "Your clear, concise opinion on the matter",
    "reasoning": "Detailed reasoning behind your opinion",
    "confidence": 0.85
}

The confidence value must be a number between 0.0 and 1.0.`

const synthesisFormat = `You MUST respond with ONLY a valid JSON object (no markdown, no explanation before or after) in this exact structure:
{
    "summary": "A comprehensive summary of the board's discussion and key points raised",
    "recommendation": "Your final recommendation based on the collective wisdom of the board"
}`

const followUpInstruction = "You are responding to a follow-up question from the board meeting. Be specific, actionable, and reference the original discussion when relevant."

// Brief is the question material shared by every agent of a deliberation
type Brief struct {
	Question    string
	Context     string
	Documents   []entities.CompanyFile // the owner's standing reference material
	Attachments []entities.AttachedFile
}

// BriefFromMeeting builds the brief for a meeting's current question, its
// files and the owner's company documents
func BriefFromMeeting(m *entities.Meeting, documents []entities.CompanyFile) Brief {
	b := Brief{Question: m.Question, Documents: documents, Attachments: m.AttachedFiles}
	if m.Context != nil {
		b.Context = strings.TrimSpace(*m.Context)
	}
	return b
}

// writeDocuments renders company documents then text attachments under one
// header, each cut to charLimit. Image attachments are returned as blocks.
func writeDocuments(sb *strings.Builder, brief Brief, charLimit int) []ai.ContentBlock {
	wroteHeader := false
	header := func() {
		if !wroteHeader {
			sb.WriteString("\n=== COMPANY DOCUMENTS ===\n")
			wroteHeader = true
		}
	}

	for _, d := range brief.Documents {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		header()
		fmt.Fprintf(sb, "\n--- %s (%s) ---\n", d.Filename, d.FileType)
		sb.WriteString(truncateRunes(d.Content, charLimit))
		sb.WriteString("\n")
	}

	var images []ai.ContentBlock
	for _, f := range brief.Attachments {
		switch {
		case f.HasText():
			header()
			fmt.Fprintf(sb, "\n--- %s (%s) ---\n", f.Filename, f.ContentType)
			sb.WriteString(truncateRunes(f.Content, charLimit))
			sb.WriteString("\n")
		case f.IsImage():
			images = append(images, ai.ImageBlock(f.Content))
		}
	}
	return images
}

// agentSystemPrompt renders the agent persona, its weights and the response format
func agentSystemPrompt(agent *entities.Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, the %s on a corporate Board of Directors.\n\n", agent.Name, agent.Role)
	if p := strings.TrimSpace(agent.SystemPrompt); p != "" {
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Your expertise weights in different areas:\n")
	for _, d := range agent.Weights.Dimensions() {
		fmt.Fprintf(&sb, "- %s: %.0f%%\n", d.Label, d.Value*100)
	}
	sb.WriteString("\nFocus more on areas where your expertise weight is higher.\n\n")

	sb.WriteString("You must provide your expert opinion on questions brought to the board. ")
	sb.WriteString("Be professional, insightful, and consider the perspective of your role.\n\n")
	sb.WriteString(opinionFormat)
	return sb.String()
}

// agentContent renders the question, context and documents for one agent.
// Image attachments become separate image blocks.
func agentContent(agent *entities.Agent, brief Brief, charLimit int) []ai.ContentBlock {
	var sb strings.Builder
	sb.WriteString("The board has received the following question for deliberation:\n\n")
	fmt.Fprintf(&sb, "QUESTION: %s\n", brief.Question)
	if brief.Context != "" {
		fmt.Fprintf(&sb, "\nADDITIONAL CONTEXT: %s\n", brief.Context)
	}

	images := writeDocuments(&sb, brief, charLimit)

	fmt.Fprintf(&sb, "\nPlease provide your professional opinion as the %s. Remember to respond with ONLY valid JSON.", agent.Role)

	blocks := []ai.ContentBlock{ai.TextBlock(sb.String())}
	return append(blocks, images...)
}

// chairSystemPrompt appends the synthesis response format to the chair prompt
func chairSystemPrompt(chair *entities.Chair) string {
	return strings.TrimSpace(chair.SystemPrompt) + "\n\n" + synthesisFormat
}

// chairContent lists the opinions in the order given, followed by the same
// documents the agents saw. Image attachments become separate image blocks.
func chairContent(brief Brief, opinions []entities.AgentOpinion, charLimit int) []ai.ContentBlock {
	var sb strings.Builder
	fmt.Fprintf(&sb, "QUESTION PRESENTED TO THE BOARD:\n%s\n", brief.Question)
	if brief.Context != "" {
		fmt.Fprintf(&sb, "\nCONTEXT: %s\n", brief.Context)
	}

	sb.WriteString("\nBOARD MEMBER OPINIONS:\n")
	for _, op := range opinions {
		fmt.Fprintf(&sb, "\n--- %s (%s) ---\n", op.AgentName, op.AgentRole)
		fmt.Fprintf(&sb, "Opinion: %s\n", op.Opinion)
		fmt.Fprintf(&sb, "Reasoning: %s\n", op.Reasoning)
		fmt.Fprintf(&sb, "Confidence: %.0f%%\n", op.Confidence*100)
	}

	images := writeDocuments(&sb, brief, charLimit)

	sb.WriteString("\nPlease synthesize these opinions and provide your recommendation as Chair of the Board. Remember to respond with ONLY valid JSON.")
	return append([]ai.ContentBlock{ai.TextBlock(sb.String())}, images...)
}

// followUpSystemPrompt frames the chair for a conversational turn
func followUpSystemPrompt(chair *entities.Chair) string {
	return strings.TrimSpace(chair.SystemPrompt) + "\n\n" + followUpInstruction
}

// FollowUpContext is the fixed material a follow-up is answered against
type FollowUpContext struct {
	Question       string
	Recommendation string
	Opinions       []entities.AgentOpinion
	Prior          []entities.FollowUpQuestion
}

// followUpContent renders the original discussion, earlier turns and the new question
func followUpContent(fc FollowUpContext, question string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ORIGINAL QUESTION:\n%s\n\n", fc.Question)
	fmt.Fprintf(&sb, "ORIGINAL BOARD RECOMMENDATION:\n%s\n\n", fc.Recommendation)

	sb.WriteString("BOARD MEMBER OPINIONS SUMMARY:\n")
	for _, op := range fc.Opinions {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", op.AgentName, op.AgentRole, op.Opinion)
	}

	answered := 0
	for _, fu := range fc.Prior {
		if fu.ChairResponse == "" {
			continue
		}
		if answered == 0 {
			sb.WriteString("\nEARLIER FOLLOW-UP QUESTIONS:\n")
		}
		answered++
		fmt.Fprintf(&sb, "\nQ%d: %s\nA%d: %s\n", answered, fu.Question, answered, fu.ChairResponse)
	}

	fmt.Fprintf(&sb, "\nFOLLOW-UP QUESTION:\n%s\n\n", question)
	sb.WriteString("Please provide a detailed, actionable response to this follow-up question. Reference specific points from the original discussion where relevant. Be practical and specific with recommendations.")
	return sb.String()
}
