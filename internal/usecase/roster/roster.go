package roster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
)

// Executive describes one default board member
type Executive struct {
	Name    string
	Role    string
	Prompt  string
	Weights entities.ExpertiseWeights
	Color   string
}

// Executives returns the default board, in hire order
func Executives() []Executive {
	return []Executive{
		{
			Name:    "Alexandra Sterling",
			Role:    "CFO",
			Prompt:  "You are a seasoned Chief Financial Officer with 20+ years of experience in corporate finance, M&A, and financial strategy. You focus on ROI, cash flow management, risk assessment, and shareholder value. You're analytically rigorous and always consider the financial implications of decisions.",
			Weights: entities.ExpertiseWeights{Finance: 0.8, Technology: 0.1, Operations: 0.3, PeopleHR: 0.1, Logistics: 0.2},
			Color:   "#10b981",
		},
		{
			Name:    "Marcus Chen",
			Role:    "CTO",
			Prompt:  "You are a visionary Chief Technology Officer with deep expertise in software architecture, AI/ML, cloud infrastructure, and digital transformation. You evaluate decisions through the lens of technical feasibility, scalability, security, and innovation potential.",
			Weights: entities.ExpertiseWeights{Finance: 0.2, Technology: 0.9, Operations: 0.4, PeopleHR: 0.2, Logistics: 0.1},
			Color:   "#6366f1",
		},
		{
			Name:    "Sarah Mitchell",
			Role:    "CPO",
			Prompt:  "You are an experienced Chief Product Officer who has launched successful products at Fortune 500 companies. You think in terms of product-market fit, user experience, competitive positioning, and go-to-market strategy. Customer value is your north star.",
			Weights: entities.ExpertiseWeights{Finance: 0.3, Technology: 0.5, Operations: 0.4, PeopleHR: 0.2, Logistics: 0.2},
			Color:   "#f59e0b",
		},
		{
			Name:    "David Okonkwo",
			Role:    "COO",
			Prompt:  "You are a methodical Chief Operating Officer who excels at operational excellence, process optimization, and scaling organizations. You focus on efficiency, quality control, supply chain management, and execution excellence.",
			Weights: entities.ExpertiseWeights{Finance: 0.3, Technology: 0.2, Operations: 0.9, PeopleHR: 0.3, Logistics: 0.7},
			Color:   "#ef4444",
		},
		{
			Name:    "Elena Rodriguez",
			Role:    "CHRO",
			Prompt:  "You are a people-focused Chief Human Resources Officer with expertise in talent management, organizational culture, leadership development, and employee engagement. You consider the human impact of every decision and advocate for sustainable, people-first practices.",
			Weights: entities.ExpertiseWeights{Finance: 0.2, Technology: 0.1, Operations: 0.3, PeopleHR: 0.9, Logistics: 0.1},
			Color:   "#ec4899",
		},
		{
			Name:    "James Thompson",
			Role:    "Chief Architect",
			Prompt:  "You are a brilliant Enterprise Architect with deep knowledge of system design, integration patterns, and technical strategy. You think in terms of long-term architecture decisions, technical debt, microservices, and enterprise-grade solutions.",
			Weights: entities.ExpertiseWeights{Finance: 0.1, Technology: 0.8, Operations: 0.5, PeopleHR: 0.1, Logistics: 0.2},
			Color:   "#8b5cf6",
		},
	}
}

// Seeder fills an empty roster and hires the default board for a user
type Seeder struct {
	agents repositories.AgentRepository
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewSeeder creates a seeder
func NewSeeder(agents repositories.AgentRepository, users repositories.UserRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{agents: agents, users: users, logger: logger}
}

// SeedRoster inserts the default executives and chair when the roster is
// empty. It returns the number of agents created.
func (s *Seeder) SeedRoster(ctx context.Context, model string, chair entities.Chair) (int, error) {
	n, err := s.agents.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("roster already seeded", zap.Int64("agents", n))
		return 0, nil
	}

	// Creation time orders the roster listing
	base := time.Now()
	for i, exec := range Executives() {
		a := entities.NewAgent(exec.Name, exec.Role, exec.Prompt, exec.Weights, model)
		a.Color = exec.Color
		a.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		if err := a.Validate(); err != nil {
			return 0, err
		}
		if err := s.agents.Create(ctx, a); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", exec.Role, err)
		}
	}

	if err := chair.Validate(); err != nil {
		return 0, err
	}
	if err := s.agents.SaveChair(ctx, &chair); err != nil {
		return 0, err
	}

	s.logger.Info("roster seeded", zap.Int("agents", len(Executives())), zap.String("chair", chair.Name))
	return len(Executives()), nil
}

// EnsureUser returns the user with email, creating it with role when missing
func (s *Seeder) EnsureUser(ctx context.Context, email, name string, role entities.UserRole) (*entities.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, entities.ErrUserNotFound) {
		return nil, err
	}

	u = entities.NewUser(email, name, role)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("email", email), zap.String("role", string(role)))
	return u, nil
}

// HireAll puts every active roster agent on the user's board
func (s *Seeder) HireAll(ctx context.Context, user *entities.User) (int, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return 0, err
	}
	hired := 0
	for _, a := range agents {
		if !a.IsActive {
			continue
		}
		if err := s.agents.Hire(ctx, user.ID, a.ID); err != nil {
			return hired, err
		}
		hired++
	}
	return hired, nil
}

// AddDocument stores a company document the user's deliberations will read.
// Invalid UTF-8 is dropped from content.
func AddDocument(ctx context.Context, repo repositories.CompanyFileRepository, user *entities.User, filename, fileType string, content []byte) (*entities.CompanyFile, error) {
	doc := entities.NewCompanyFile(user.ID, filepath.Base(filename), fileType, strings.ToValidUTF8(string(content), ""), nil)
	if err := repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to add document %s: %w", doc.Filename, err)
	}
	return doc, nil
}
