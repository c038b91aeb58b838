package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/judge"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
	ws "github.com/codequestlab/codequest-backend/internal/websocket"
)

// Submission orchestration errors.
var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskLocked means the preceding task in the module has not been
	// completed. No submission record is written for locked attempts.
	ErrTaskLocked = errors.New("task is locked")
	// ErrExecutionFailed wraps an evaluator-level failure. The submission is
	// finalized as compilation_error with whatever counts were scored.
	ErrExecutionFailed = errors.New("execution failed")
)

// SubmissionService drives one submission from intake to terminal verdict
// and applies all resulting progress, XP, and achievement effects before
// the caller sees the response.
type SubmissionService struct {
	store        repository.Store
	evaluation   *EvaluationService
	progress     *ProgressService
	achievements *AchievementService
	rdb          *redis.Client
	cfg          *config.Config
	log          zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	store repository.Store,
	evaluation *EvaluationService,
	progress *ProgressService,
	achievements *AchievementService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		store:        store,
		evaluation:   evaluation,
		progress:     progress,
		achievements: achievements,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit evaluates one code submission end to end.
//
// Lifecycle: access checks happen before anything is written — a locked or
// missing task leaves no trace. The pending submission row is persisted
// before the first judge call so a crash mid-evaluation still leaves an
// auditable record. The row then moves exactly once to accepted,
// wrong_answer, or compilation_error; terminal rows are never re-scored.
func (s *SubmissionService) Submit(ctx context.Context, userID, taskID int, req model.SubmitCodeRequest) (*model.SubmitCodeResponse, error) {
	if _, ok := judge.LanguageID(req.Language); !ok {
		return nil, fmt.Errorf("%w: %q", judge.ErrUnsupportedLanguage, req.Language)
	}

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("lookup task: %w", err)
	}

	unlocked, err := s.progress.IsUnlocked(ctx, userID, task)
	if err != nil {
		return nil, fmt.Errorf("check unlock: %w", err)
	}
	if !unlocked {
		return nil, ErrTaskLocked
	}

	module, err := s.store.GetModuleByID(ctx, task.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("lookup module: %w", err)
	}

	submission := &model.Submission{
		ID:       uuid.New().String(),
		UserID:   userID,
		TaskID:   task.ID,
		Code:     req.Code,
		Language: req.Language,
		Status:   model.SubmissionPending,
	}
	if err := s.store.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	testCases, err := s.store.ListTestCases(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}

	eval, evalErr := s.evaluation.Evaluate(ctx, req.Code, req.Language, testCases, task.TimeLimitSecs, task.MemoryLimitMB)
	if evalErr != nil {
		// Evaluator-level failure (not a per-case one): finalize as
		// compilation_error with whatever partial counts exist and surface
		// the underlying message. The request context may already be dead
		// here (client gone mid-evaluation); the verdict write must still
		// happen or the row stays pending forever, so detach it.
		passed, total := 0, len(testCases)
		token := ""
		if eval != nil {
			passed = eval.TotalPassed
			token = eval.LastToken()
		}
		if finErr := s.store.FinalizeSubmission(context.WithoutCancel(ctx), submission.ID, model.SubmissionCompilationError, passed, total, token); finErr != nil {
			s.log.Error().Err(finErr).Str("submission_id", submission.ID).Msg("Failed to finalize errored submission")
		}
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, evalErr)
	}

	status := model.SubmissionWrongAnswer
	if eval.TotalCases > 0 && eval.TotalPassed == eval.TotalCases {
		status = model.SubmissionAccepted
	}

	if err := s.store.FinalizeSubmission(ctx, submission.ID, status, eval.TotalPassed, eval.TotalCases, eval.LastToken()); err != nil {
		return nil, fmt.Errorf("finalize submission: %w", err)
	}
	submission.Status = status
	submission.TestCasesPassed = eval.TotalPassed
	submission.TotalTestCases = eval.TotalCases
	submission.JudgeToken = eval.LastToken()

	if status == model.SubmissionAccepted {
		if err := s.applyAcceptedEffects(ctx, userID, module.CourseID, task); err != nil {
			// The verdict is already final; effects must not be silently
			// lost, so surface the failure to the caller for a retry path.
			return nil, fmt.Errorf("apply completion effects: %w", err)
		}
	}

	s.log.Info().
		Str("submission_id", submission.ID).
		Int("user_id", userID).
		Int("task_id", task.ID).
		Str("status", string(status)).
		Int("passed", eval.TotalPassed).
		Int("total", eval.TotalCases).
		Msg("Submission finalized")

	return &model.SubmitCodeResponse{
		Submission:  *submission,
		Results:     buildVerdicts(eval),
		TotalPassed: eval.TotalPassed,
		TotalTests:  eval.TotalCases,
	}, nil
}

// applyAcceptedEffects runs the accepted-transition side effects in order:
// progress upsert, XP credit, achievement re-check. All of it completes
// before the HTTP response reports "accepted", so the client never sees a
// verdict ahead of its XP/unlock state.
func (s *SubmissionService) applyAcceptedEffects(ctx context.Context, userID, courseID int, task *model.Task) error {
	if err := s.progress.MarkTaskComplete(ctx, userID, courseID, task); err != nil {
		return err
	}

	xp := task.XPReward
	if xp == 0 {
		xp = s.cfg.DefaultTaskXP
	}
	if err := s.store.AddUserXP(ctx, userID, xp); err != nil {
		return fmt.Errorf("credit task xp: %w", err)
	}
	s.publishXPEvent(ctx, model.XPEvent{UserID: userID, Amount: xp, Reason: "task_completed"})

	unlocked, err := s.achievements.EvaluateForUser(ctx, userID, model.ConditionTasksCompleted)
	if err != nil {
		return err
	}
	for _, a := range unlocked {
		if a.XPReward > 0 {
			s.publishXPEvent(ctx, model.XPEvent{UserID: userID, Amount: a.XPReward, Reason: "achievement_unlocked"})
		}
		s.publishActivity(ctx, ws.ActivityEvent{
			Type:   ws.ActivityAchievementUnlocked,
			UserID: userID,
			Detail: a.Name,
			XP:     a.XPReward,
		})
	}

	s.publishActivity(ctx, ws.ActivityEvent{
		Type:   ws.ActivityTaskCompleted,
		UserID: userID,
		Detail: task.Title,
		XP:     xp,
	})

	return nil
}

// GetByID fetches one submission, restricted to its owner.
func (s *SubmissionService) GetByID(ctx context.Context, userID int, id string) (*model.Submission, error) {
	sub, err := s.store.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return sub, nil
}

// ListRecent returns the user's most recent submissions.
func (s *SubmissionService) ListRecent(ctx context.Context, userID, limit int) ([]model.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListSubmissionsByUser(ctx, userID, limit)
}

// publishXPEvent pushes an XP credit onto the leaderboard worker queue.
// The queue only feeds derived state (leaderboard cache, audit trail), so a
// publish failure is logged and never fails the submission.
func (s *SubmissionService) publishXPEvent(ctx context.Context, event model.XPEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.XPEventsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue XP event")
	}
}

// publishActivity broadcasts a platform event on the activity feed channel.
func (s *SubmissionService) publishActivity(ctx context.Context, event ws.ActivityEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ActivityFeedChannel(), raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish activity event")
	}
}

// buildVerdicts converts evaluator case results into learner-facing
// verdicts, blanking the output of hidden cases.
func buildVerdicts(eval *EvaluationResult) []model.TestCaseVerdict {
	verdicts := make([]model.TestCaseVerdict, 0, len(eval.Results))
	for _, cr := range eval.Results {
		v := model.TestCaseVerdict{
			TestCaseID: cr.TestCase.ID,
			Hidden:     cr.TestCase.Hidden,
			Passed:     cr.Passed,
			Status:     cr.Status,
			Stdout:     cr.Stdout,
			TimeTaken:  cr.Time,
			MemoryKB:   cr.MemoryKB,
		}
		if cr.TestCase.Hidden {
			v.Stdout = ""
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}
