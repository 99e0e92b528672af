package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stanstork/condo-notify/internal/models"
)

// MemoryCommentRepository keeps comments in process memory. It is used when no
// database is configured and in tests.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	now      func() time.Time
	comments map[int][]models.Comment
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		now:      time.Now,
		comments: make(map[int][]models.Comment),
	}
}

func (r *MemoryCommentRepository) Create(_ context.Context, params CreateCommentParams) (models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := models.Comment{
		ID:             uuid.NewString(),
		NotificationID: params.NotificationID,
		AuthorID:       params.AuthorID,
		AuthorName:     strings.TrimSpace(params.AuthorName),
		Text:           params.Text,
		CreatedAt:      r.now().UTC(),
	}
	existing := r.comments[params.NotificationID]
	list := make([]models.Comment, 0, len(existing)+1)
	list = append(list, c)
	r.comments[params.NotificationID] = append(list, existing...)
	return c, nil
}

func (r *MemoryCommentRepository) ListByNotification(_ context.Context, notificationID int) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Comment{}, r.comments[notificationID]...), nil
}
