package repository

import (
	"context"
	"database/sql"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/condo-notify/internal/migration"
)

// exerciseCommentRepository runs the behaviour every implementation shares.
func exerciseCommentRepository(t *testing.T, repo CommentRepository, notificationID int) {
	ctx := context.Background()

	empty, err := repo.ListByNotification(ctx, notificationID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := repo.Create(ctx, CreateCommentParams{NotificationID: notificationID, AuthorID: 3, AuthorName: " Ana ", Text: "Vou verificar"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Ana", first.AuthorName)
	assert.False(t, first.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	second, err := repo.Create(ctx, CreateCommentParams{NotificationID: notificationID, AuthorID: 9, AuthorName: "Zelador", Text: "Resolvido"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = repo.Create(ctx, CreateCommentParams{NotificationID: notificationID + 1, AuthorID: 3, Text: "Outro"})
	require.NoError(t, err)

	list, err := repo.ListByNotification(ctx, notificationID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "Resolvido", list[0].Text)
}

func TestMemoryCommentRepository(t *testing.T) {
	exerciseCommentRepository(t, NewMemoryCommentRepository(), 42)
}

func TestMemoryCommentRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryCommentRepository()
	ctx := context.Background()
	_, err := repo.Create(ctx, CreateCommentParams{NotificationID: 1, AuthorID: 1, Text: "a"})
	require.NoError(t, err)

	list, err := repo.ListByNotification(ctx, 1)
	require.NoError(t, err)
	list[0].Text = "changed"

	again, err := repo.ListByNotification(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Text)
}

func TestPostgresCommentRepository(t *testing.T) {
	dbURL := os.Getenv("CONDO_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("CONDO_TEST_DATABASE_URL not set")
	}
	require.NoError(t, migration.RunMigrations(dbURL, zerolog.Nop()))

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// random id range keeps reruns independent of earlier data
	notificationID := 1_000_000 + rand.Intn(1_000_000)
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM condominio.comentarios WHERE notificacao_id IN ($1, $2)", notificationID, notificationID+1)
	})

	exerciseCommentRepository(t, NewCommentRepository(db), notificationID)
}
