package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// ProgressService tracks completion records and the linear unlock chain.
type ProgressService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(store repository.Store, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		store: store,
		log:   log.With().Str("component", "progress_service").Logger(),
	}
}

// IsUnlocked reports whether a user may attempt a task. Tasks form a strict
// linear chain per module: position 0 is always open, position i requires a
// completed progress record on the task at position i-1. Ordering follows
// the explicit position column, never IDs or creation time.
func (s *ProgressService) IsUnlocked(ctx context.Context, userID int, task *model.Task) (bool, error) {
	if task.Position == 0 {
		return true, nil
	}

	prev, err := s.store.GetTaskByPosition(ctx, task.ModuleID, task.Position-1)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Gap in positions: nothing to complete first.
			return true, nil
		}
		return false, fmt.Errorf("lookup preceding task: %w", err)
	}

	return s.store.TaskCompleted(ctx, userID, prev.ID)
}

// MarkTaskComplete upserts the task-level progress record and, when the
// task was the module's last open one, the module-level record as well.
// Both upserts are idempotent.
func (s *ProgressService) MarkTaskComplete(ctx context.Context, userID, courseID int, task *model.Task) error {
	moduleID := task.ModuleID
	taskID := task.ID
	if err := s.store.UpsertProgress(ctx, userID, courseID, &moduleID, &taskID); err != nil {
		return fmt.Errorf("upsert task progress: %w", err)
	}

	total, err := s.store.CountTasksInModule(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("count module tasks: %w", err)
	}
	done, err := s.store.CountCompletedTasksInModule(ctx, userID, moduleID)
	if err != nil {
		return fmt.Errorf("count completed module tasks: %w", err)
	}

	if total > 0 && done >= total {
		if err := s.store.UpsertProgress(ctx, userID, courseID, &moduleID, nil); err != nil {
			return fmt.Errorf("upsert module progress: %w", err)
		}
		s.log.Info().
			Int("user_id", userID).
			Int("module_id", moduleID).
			Msg("Module completed")
	}

	return nil
}

// MarkCourseComplete upserts the course-level progress record.
func (s *ProgressService) MarkCourseComplete(ctx context.Context, userID, courseID int) error {
	return s.store.UpsertProgress(ctx, userID, courseID, nil, nil)
}

// CountCompletedTasks returns the user's lifetime completed-task count.
func (s *ProgressService) CountCompletedTasks(ctx context.Context, userID int) (int, error) {
	return s.store.CountCompletedTasks(ctx, userID)
}

// CourseCompleted reports whether every module of a course has a completed
// module-level record for the user.
func (s *ProgressService) CourseCompleted(ctx context.Context, userID, courseID int) (bool, error) {
	total, err := s.store.CountModules(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("count modules: %w", err)
	}
	if total == 0 {
		return false, nil
	}
	done, err := s.store.CountCompletedModules(ctx, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("count completed modules: %w", err)
	}
	return done >= total, nil
}
