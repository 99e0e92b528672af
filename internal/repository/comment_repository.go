package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/stanstork/condo-notify/internal/models"
)

// CommentRepository stores remarks attached to notifications. Lists come back
// newest first.
type CommentRepository interface {
	Create(ctx context.Context, params CreateCommentParams) (models.Comment, error)
	ListByNotification(ctx context.Context, notificationID int) ([]models.Comment, error)
}

type CreateCommentParams struct {
	NotificationID int
	AuthorID       int
	AuthorName     string
	Text           string
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, params CreateCommentParams) (models.Comment, error) {
	const query = `
		INSERT INTO condominio.comentarios (id, notificacao_id, autor_id, autor_nome, texto)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, notificacao_id, autor_id, autor_nome, texto, data_criacao
	`
	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		params.NotificationID,
		params.AuthorID,
		strings.TrimSpace(params.AuthorName),
		params.Text,
	)
	comment, err := scanComment(row)
	if err != nil {
		return models.Comment{}, errors.Wrap(err, "insert comment")
	}
	return comment, nil
}

func (r *commentRepository) ListByNotification(ctx context.Context, notificationID int) ([]models.Comment, error) {
	const query = `
		SELECT id, notificacao_id, autor_id, autor_nome, texto, data_criacao
		FROM condominio.comentarios
		WHERE notificacao_id = $1
		ORDER BY data_criacao DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, notificationID)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func scanComment(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Comment, error) {
	var (
		c         models.Comment
		createdAt time.Time
	)
	if err := scanner.Scan(&c.ID, &c.NotificationID, &c.AuthorID, &c.AuthorName, &c.Text, &createdAt); err != nil {
		return models.Comment{}, err
	}
	c.CreatedAt = createdAt.UTC()
	return c, nil
}
