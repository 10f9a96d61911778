package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/todbot/internal/database/dbretry"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TransitionFunc runs inside the resolving transaction after a submission left Pending.
// Returning an error rolls the status change back.
type TransitionFunc func(ctx context.Context, tx bun.Tx, submission *types.Submission) (*types.Prompt, error)

// SubmissionModel handles database operations for the review queue.
type SubmissionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSubmission creates a new submission model.
func NewSubmission(db *bun.DB, logger *zap.Logger) *SubmissionModel {
	return &SubmissionModel{
		db:     db,
		logger: logger.Named("db_submission"),
	}
}

// Create stores a new submission in the Pending state.
func (m *SubmissionModel) Create(ctx context.Context, submission *types.Submission) error {
	submission.Status = enum.SubmissionStatusPending
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now()
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(submission).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}

		return nil
	})
}

// Get retrieves a submission by ID.
func (m *SubmissionModel) Get(ctx context.Context, id int64) (*types.Submission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Submission, error) {
		var submission types.Submission
		err := m.db.NewSelect().
			Model(&submission).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrSubmissionNotFound
			}
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}

		return &submission, nil
	})
}

// ListPending returns the oldest pending submissions first.
func (m *SubmissionModel) ListPending(ctx context.Context, limit int) ([]*types.Submission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Submission, error) {
		var submissions []*types.Submission
		err := m.db.NewSelect().
			Model(&submissions).
			Where("status = ?", enum.SubmissionStatusPending).
			Order("created_at ASC", "id ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending submissions: %w", err)
		}

		return submissions, nil
	})
}

// Resolve moves a pending submission to the given terminal status.
//
// The status change is a single conditional update, so when several moderators
// decide at once exactly one of them wins and the rest get AlreadyResolved.
// onTransition runs only for the winner, in the same transaction.
func (m *SubmissionModel) Resolve(
	ctx context.Context,
	id int64,
	status enum.SubmissionStatus,
	moderator string,
	onTransition TransitionFunc,
) (*types.Resolution, error) {
	if status == enum.SubmissionStatusPending {
		return nil, fmt.Errorf("%w: cannot resolve to %s", types.ErrValidation, status)
	}

	var resolution *types.Resolution

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		resolution = nil

		result, err := tx.NewUpdate().
			Model((*types.Submission)(nil)).
			Set("status = ?", status).
			Set("reviewed_by = ?", moderator).
			Set("reviewed_at = ?", time.Now()).
			Where("id = ?", id).
			Where("status = ?", enum.SubmissionStatusPending).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update submission status: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}

		var submission types.Submission
		err = tx.NewSelect().
			Model(&submission).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to read submission: %w", err)
		}

		if affected == 0 {
			resolution = &types.Resolution{Submission: &submission, AlreadyResolved: true}
			return nil
		}

		resolution = &types.Resolution{Submission: &submission}

		if onTransition != nil {
			prompt, err := onTransition(ctx, tx, &submission)
			if err != nil {
				return err
			}
			resolution.Prompt = prompt
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if resolution.AlreadyResolved {
		m.logger.Debug("Submission was already resolved",
			zap.Int64("id", id),
			zap.String("status", resolution.Submission.Status.String()))
	} else {
		m.logger.Info("Resolved submission",
			zap.Int64("id", id),
			zap.String("status", status.String()),
			zap.String("moderator", moderator))
	}

	return resolution, nil
}
