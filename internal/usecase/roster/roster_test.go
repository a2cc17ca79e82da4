package roster

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/boardroom/internal/adapter/repository"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

func newSeeder(t *testing.T) *Seeder {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Agent{}, &entities.HiredAgent{}, &entities.Chair{}))
	return NewSeeder(repository.NewAgentRepository(db), repository.NewUserRepository(db), zaptest.NewLogger(t))
}

func testChair() entities.Chair {
	return entities.Chair{Name: "Board Chair", SystemPrompt: "synthesize", Model: "gpt-4o-mini"}
}

func TestExecutives_Valid(t *testing.T) {
	execs := Executives()
	require.Len(t, execs, 6)
	for _, e := range execs {
		assert.NoError(t, e.Weights.Validate(), e.Role)
		assert.NotEmpty(t, e.Prompt, e.Role)
	}
}

func TestSeedRoster_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := newSeeder(t)

	n, err := s.SeedRoster(ctx, "gpt-4o-mini", testChair())
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = s.SeedRoster(ctx, "gpt-4o-mini", testChair())
	require.NoError(t, err)
	assert.Zero(t, n)

	chair, err := s.agents.GetChair(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Board Chair", chair.Name)
}

func TestSeedRoster_RejectsInvalidChair(t *testing.T) {
	s := newSeeder(t)
	_, err := s.SeedRoster(context.Background(), "gpt-4o-mini", entities.Chair{Name: "Chair", Model: "gpt-4o"})
	assert.ErrorIs(t, err, entities.ErrInvalidChair)
}

func TestEnsureUserAndHireAll(t *testing.T) {
	ctx := context.Background()
	s := newSeeder(t)
	_, err := s.SeedRoster(ctx, "", testChair())
	require.NoError(t, err)

	u, err := s.EnsureUser(ctx, "admin@boardroom.local", "Admin", entities.RoleAdmin)
	require.NoError(t, err)
	again, err := s.EnsureUser(ctx, "admin@boardroom.local", "Admin", entities.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.True(t, again.IsAdmin())

	hired, err := s.HireAll(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 6, hired)

	board, err := s.agents.ListHired(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, board, 6)
	for i, e := range Executives() {
		assert.Equal(t, e.Role, board[i].Role)
		assert.Equal(t, entities.DefaultModel, board[i].Model)
	}
}

func TestAddDocument(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.CompanyFile{}))
	repo := repository.NewCompanyFileRepository(db)
	user := entities.NewUser("ceo@example.com", "CEO", entities.RoleMember)

	doc, err := AddDocument(ctx, repo, user, "/tmp/reports/fy24.txt", "financial_statement", []byte("Revenue up\xff 12%"))
	require.NoError(t, err)
	assert.Equal(t, "fy24.txt", doc.Filename)
	assert.Equal(t, "Revenue up 12%", doc.Content)

	docs, err := repo.ListByOwner(ctx, user.ID, entities.MaxCompanyFiles)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)

	_, err = AddDocument(ctx, repo, user, "empty.txt", "report", nil)
	assert.ErrorIs(t, err, entities.ErrInvalidCompanyFile)
}
