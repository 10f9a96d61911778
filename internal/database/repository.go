package database

import (
	"github.com/robalyx/todbot/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	prompt     *models.PromptModel
	submission *models.SubmissionModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		prompt:     models.NewPrompt(db, logger),
		submission: models.NewSubmission(db, logger),
	}
}

// Prompt returns the prompt model repository.
func (r *Repository) Prompt() *models.PromptModel {
	return r.prompt
}

// Submission returns the submission model repository.
func (r *Repository) Submission() *models.SubmissionModel {
	return r.submission
}
