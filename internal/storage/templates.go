package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// Templates handles all database operations on custom-export templates.
type Templates struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewTemplates creates a new template repository.
func NewTemplates(db *sqlx.DB, logger *slog.Logger) *Templates {
	return &Templates{db: db, logger: logger}
}

// Create validates and inserts a template, returning its id.
func (r *Templates) Create(ctx context.Context, t *domain.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRowContext(ctx, queryInsertTemplate,
		t.Name,
		t.Description,
		t.SelectedFields,
		t.FieldAliases,
		t.FieldOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create template: %w", err)
	}

	r.logger.Info("Template created",
		slog.Int64("template_id", id),
		slog.String("name", t.Name),
		slog.Int("fields", len(t.SelectedFields)),
	)
	return id, nil
}

// Get retrieves a template by id.
func (r *Templates) Get(ctx context.Context, id int64) (*domain.Template, error) {
	var t domain.Template
	if err := r.db.GetContext(ctx, &t, queryGetTemplate, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// List returns all templates ordered by name.
func (r *Templates) List(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	if err := r.db.SelectContext(ctx, &templates, queryListTemplates); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Update rewrites a template definition.
func (r *Templates) Update(ctx context.Context, id int64, t *domain.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, queryUpdateTemplate,
		t.Name,
		t.Description,
		t.SelectedFields,
		t.FieldAliases,
		t.FieldOrder,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

// Delete removes a template.
func (r *Templates) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, queryDeleteTemplate, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	r.logger.Info("Template deleted", slog.Int64("template_id", id))
	return nil
}

// Users resolves requester ids to notification addresses. The host platform
// owns the user table; this repository only reads the address column.
type Users struct {
	db *sqlx.DB
}

// NewUsers creates a new user lookup.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// EmailFor returns the stored email address for a user id.
func (r *Users) EmailFor(ctx context.Context, userID int64) (string, error) {
	var email string
	if err := r.db.GetContext(ctx, &email, queryUserEmail, userID); err != nil {
		return "", fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	return email, nil
}
