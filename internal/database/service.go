package database

import (
	"github.com/robalyx/todbot/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	prompt     *service.PromptService
	submission *service.SubmissionService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, logger *zap.Logger) *Service {
	promptModel := repository.Prompt()
	submissionModel := repository.Submission()

	return &Service{
		prompt:     service.NewPrompt(promptModel, logger),
		submission: service.NewSubmission(submissionModel, promptModel, logger),
	}
}

// Prompt returns the prompt service.
func (s *Service) Prompt() *service.PromptService {
	return s.prompt
}

// Submission returns the submission service.
func (s *Service) Submission() *service.SubmissionService {
	return s.submission
}
