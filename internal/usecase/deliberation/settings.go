package deliberation

import (
	"fmt"
	"sync"
	"time"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
	"github.com/johnquangdev/boardroom/pkg/config"
)

// Settings is the operator-tunable configuration of one operation. It is
// resolved once when the operation starts and passed by value afterwards.
type Settings struct {
	AgentMaxTokens    int
	ChairMaxTokens    int
	FanOutTimeout     time.Duration
	ReplayFollowUps   bool
	DocumentCharLimit int
	Temperature       *float64

	// DefaultChair is used when no chair record is stored
	DefaultChair entities.Chair
}

// SettingsFromConfig builds settings from the loaded configuration
func SettingsFromConfig(d config.DeliberationConfig, llm config.LLMConfig) Settings {
	temperature := llm.Temperature
	return Settings{
		AgentMaxTokens:    d.AgentMaxTokens,
		ChairMaxTokens:    d.ChairMaxTokens,
		FanOutTimeout:     d.FanOutTimeout,
		ReplayFollowUps:   d.ReplayFollowUps,
		DocumentCharLimit: d.DocumentCharLimit,
		Temperature:       &temperature,
		DefaultChair: entities.Chair{
			Name:         d.ChairName,
			SystemPrompt: d.ChairPrompt,
			Model:        d.ChairModel,
			Color:        d.ChairColor,
		},
	}
}

// Validate rejects settings that would make provider calls invalid
func (s Settings) Validate() error {
	if s.AgentMaxTokens < config.MinCompletionTokens || s.AgentMaxTokens > config.MaxCompletionTokens {
		return &usecaseErrors.ConfigurationError{Reason: fmt.Sprintf(
			"agent max completion tokens %d outside [%d, %d]", s.AgentMaxTokens, config.MinCompletionTokens, config.MaxCompletionTokens)}
	}
	if s.ChairMaxTokens < config.MinCompletionTokens || s.ChairMaxTokens > config.MaxCompletionTokens {
		return &usecaseErrors.ConfigurationError{Reason: fmt.Sprintf(
			"chair max completion tokens %d outside [%d, %d]", s.ChairMaxTokens, config.MinCompletionTokens, config.MaxCompletionTokens)}
	}
	if s.FanOutTimeout <= 0 {
		return &usecaseErrors.ConfigurationError{Reason: "fan-out deadline must be positive"}
	}
	if s.DocumentCharLimit <= 0 {
		return &usecaseErrors.ConfigurationError{Reason: "document character limit must be positive"}
	}
	return nil
}

// SettingsSource supplies the settings snapshot for a new operation
type SettingsSource interface {
	Settings() Settings
}

// SettingsStore holds the current settings and lets operators replace them
// without affecting operations already running.
type SettingsStore struct {
	mu      sync.RWMutex
	current Settings
}

// NewSettingsStore validates and stores the initial settings
func NewSettingsStore(initial Settings) (*SettingsStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &SettingsStore{current: initial}, nil
}

// Settings returns a snapshot of the current settings
func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.current
	if snap.Temperature != nil {
		t := *snap.Temperature
		snap.Temperature = &t
	}
	return snap
}

// Update replaces the settings after validating them
func (s *SettingsStore) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}
