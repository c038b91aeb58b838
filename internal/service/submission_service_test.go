package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/judge"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// deadRedis returns a client pointing nowhere. Queue and pubsub publishes
// are non-fatal by design, so services must tolerate every call failing.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 20 * time.Millisecond,
		MaxRetries:  -1,
	})
}

type submissionEnv struct {
	store  *fakeStore
	runner *scriptedRunner
	svc    *SubmissionService

	userID   int
	courseID int
	moduleID int
}

func newSubmissionEnv(t *testing.T) *submissionEnv {
	t.Helper()
	store := newFakeStore()
	runner := &scriptedRunner{results: map[string]*judge.Result{}, errs: map[string]error{}}
	log := zerolog.Nop()
	cfg := &config.Config{DefaultTaskXP: 50}

	progress := NewProgressService(store, log)
	achievements := NewAchievementService(store, log)
	evaluation := NewEvaluationService(runner, log)
	svc := NewSubmissionService(store, evaluation, progress, achievements, deadRedis(), cfg, log)

	env := &submissionEnv{store: store, runner: runner, svc: svc}

	user := &model.User{Email: "learner@example.com", Name: "Learner", Role: model.RoleLearner}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	env.userID = user.ID

	course := &model.Course{Slug: "c", Title: "Course", XPReward: 100}
	if err := store.CreateCourse(context.Background(), course); err != nil {
		t.Fatal(err)
	}
	env.courseID = course.ID

	module := &model.Module{CourseID: course.ID, Title: "Module", Position: 0}
	if err := store.CreateModule(context.Background(), module); err != nil {
		t.Fatal(err)
	}
	env.moduleID = module.ID

	return env
}

// addTask creates a task at the given position with one test case per
// (input, expected) pair. The final pair's case is hidden when hide is set.
func (e *submissionEnv) addTask(t *testing.T, position, xp int, hide bool, pairs ...[2]string) *model.Task {
	t.Helper()
	task := &model.Task{
		ModuleID:      e.moduleID,
		Title:         "Task",
		Prompt:        "Do the thing",
		Position:      position,
		TimeLimitSecs: 2,
		MemoryLimitMB: 128,
		XPReward:      xp,
	}
	if err := e.store.CreateTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	for i, p := range pairs {
		tc := &model.TestCase{
			TaskID:         task.ID,
			Input:          p[0],
			ExpectedOutput: p[1],
			Hidden:         hide && i == len(pairs)-1,
			Position:       i,
		}
		if err := e.store.CreateTestCase(context.Background(), tc); err != nil {
			t.Fatal(err)
		}
	}
	return task
}

func submitReq() model.SubmitCodeRequest {
	return model.SubmitCodeRequest{Code: "print(input())", Language: "python"}
}

func TestSubmitAccepted(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 75, true, [2]string{"a", "A"}, [2]string{"b", "B"})
	env.runner.results["a"] = accepted("A\n")
	env.runner.results["b"] = accepted("B")

	resp, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if resp.Submission.Status != model.SubmissionAccepted {
		t.Errorf("status = %s, want accepted", resp.Submission.Status)
	}
	if resp.TotalPassed != 2 || resp.TotalTests != 2 {
		t.Errorf("passed/tests = %d/%d", resp.TotalPassed, resp.TotalTests)
	}

	// Stored row reached the same terminal state.
	stored, err := env.store.GetSubmissionByID(context.Background(), resp.Submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.SubmissionAccepted || stored.TestCasesPassed != 2 {
		t.Errorf("stored = %+v", stored)
	}

	// Completion and XP settled before the response.
	done, _ := env.store.TaskCompleted(context.Background(), env.userID, task.ID)
	if !done {
		t.Error("task not marked complete")
	}
	user, _ := env.store.GetUserByID(context.Background(), env.userID)
	if user.XP != 75 {
		t.Errorf("xp = %d, want 75", user.XP)
	}

	// Hidden case output blanked in the learner-facing verdicts.
	if len(resp.Results) != 2 {
		t.Fatalf("verdicts = %d", len(resp.Results))
	}
	if resp.Results[0].Stdout == "" {
		t.Error("visible case output should be returned")
	}
	if resp.Results[1].Stdout != "" {
		t.Error("hidden case output must be blanked")
	}
}

func TestSubmitWrongAnswer(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"}, [2]string{"b", "B"})
	env.runner.results["a"] = accepted("A")
	env.runner.results["b"] = accepted("WRONG")

	resp, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if resp.Submission.Status != model.SubmissionWrongAnswer {
		t.Errorf("status = %s, want wrong_answer", resp.Submission.Status)
	}
	if resp.TotalPassed != 1 {
		t.Errorf("passed = %d, want 1", resp.TotalPassed)
	}

	done, _ := env.store.TaskCompleted(context.Background(), env.userID, task.ID)
	if done {
		t.Error("wrong answer must not complete the task")
	}
	user, _ := env.store.GetUserByID(context.Background(), env.userID)
	if user.XP != 0 {
		t.Errorf("xp = %d, want 0", user.XP)
	}
}

func TestSubmitDefaultXPWhenTaskHasNone(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 0, false, [2]string{"a", "A"})
	env.runner.results["a"] = accepted("A")

	if _, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	user, _ := env.store.GetUserByID(context.Background(), env.userID)
	if user.XP != 50 {
		t.Errorf("xp = %d, want the configured default 50", user.XP)
	}
}

func TestSubmitLockedTaskWritesNothing(t *testing.T) {
	env := newSubmissionEnv(t)
	env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	locked := env.addTask(t, 1, 50, false, [2]string{"b", "B"})

	_, err := env.svc.Submit(context.Background(), env.userID, locked.ID, submitReq())
	if !errors.Is(err, ErrTaskLocked) {
		t.Fatalf("err = %v, want ErrTaskLocked", err)
	}

	if len(env.store.submissions) != 0 {
		t.Error("locked attempt must leave no submission record")
	}
	if len(env.runner.ran) != 0 {
		t.Error("locked attempt must not reach the execution service")
	}
}

func TestSubmitUnlocksAfterPredecessorAccepted(t *testing.T) {
	env := newSubmissionEnv(t)
	first := env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	second := env.addTask(t, 1, 50, false, [2]string{"b", "B"})
	env.runner.results["a"] = accepted("A")
	env.runner.results["b"] = accepted("B")

	if _, err := env.svc.Submit(context.Background(), env.userID, first.ID, submitReq()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	resp, err := env.svc.Submit(context.Background(), env.userID, second.ID, submitReq())
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if resp.Submission.Status != model.SubmissionAccepted {
		t.Errorf("status = %s", resp.Submission.Status)
	}
}

func TestSubmitMissingTask(t *testing.T) {
	env := newSubmissionEnv(t)

	_, err := env.svc.Submit(context.Background(), env.userID, 9999, submitReq())
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestSubmitUnsupportedLanguage(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"})

	_, err := env.svc.Submit(context.Background(), env.userID, task.ID, model.SubmitCodeRequest{Code: "x", Language: "cobol"})
	if !errors.Is(err, judge.ErrUnsupportedLanguage) {
		t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
	}
	if len(env.store.submissions) != 0 {
		t.Error("unsupported language must be rejected before any record is written")
	}
}

func TestSubmitEvaluatorFailureFinalizesAsCompilationError(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"}, [2]string{"b", "B"})
	env.runner.results["a"] = accepted("A")
	env.runner.errs["b"] = context.DeadlineExceeded

	_, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq())
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("err = %v, want ErrExecutionFailed", err)
	}

	// The pending row must still reach a terminal state with partial counts.
	var stored *model.Submission
	for _, s := range env.store.submissions {
		stored = s
	}
	if stored == nil {
		t.Fatal("submission record missing")
	}
	if stored.Status != model.SubmissionCompilationError {
		t.Errorf("status = %s, want compilation_error", stored.Status)
	}
	if stored.TestCasesPassed != 1 || stored.TotalTestCases != 2 {
		t.Errorf("counts = %d/%d, want 1/2", stored.TestCasesPassed, stored.TotalTestCases)
	}
}

// ctxCheckingStore rejects verdict writes on a dead context the way the
// pgx-backed store does, so tests catch finalization on a cancelled
// request context.
type ctxCheckingStore struct {
	*fakeStore
}

func (s *ctxCheckingStore) FinalizeSubmission(ctx context.Context, id string, status model.SubmissionStatus, passed, total int, judgeToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeStore.FinalizeSubmission(ctx, id, status, passed, total, judgeToken)
}

// cancellingRunner cancels the request context when it sees the trigger
// stdin, simulating the client disconnecting mid-batch.
type cancellingRunner struct {
	inner   CodeRunner
	cancel  context.CancelFunc
	trigger string
}

func (r *cancellingRunner) Run(ctx context.Context, code, language, stdin string, limits judge.Limits) (*judge.Result, error) {
	if stdin == r.trigger {
		r.cancel()
		return nil, context.Canceled
	}
	return r.inner.Run(ctx, code, language, stdin, limits)
}

func TestSubmitClientDisconnectStillFinalizes(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"}, [2]string{"b", "B"})
	env.runner.results["a"] = accepted("A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := zerolog.Nop()
	store := &ctxCheckingStore{env.store}
	runner := &cancellingRunner{inner: env.runner, cancel: cancel, trigger: "b"}
	progress := NewProgressService(store, log)
	achievements := NewAchievementService(store, log)
	evaluation := NewEvaluationService(runner, log)
	svc := NewSubmissionService(store, evaluation, progress, achievements, deadRedis(), &config.Config{DefaultTaskXP: 50}, log)

	_, err := svc.Submit(ctx, env.userID, task.ID, submitReq())
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("err = %v, want ErrExecutionFailed", err)
	}

	// The verdict write must survive the dead request context; a row left
	// pending would never be re-scored.
	var stored *model.Submission
	for _, s := range env.store.submissions {
		stored = s
	}
	if stored == nil {
		t.Fatal("submission record missing")
	}
	if stored.Status != model.SubmissionCompilationError {
		t.Errorf("status = %s, want compilation_error", stored.Status)
	}
	if stored.TestCasesPassed != 1 || stored.TotalTestCases != 2 {
		t.Errorf("counts = %d/%d, want 1/2", stored.TestCasesPassed, stored.TotalTestCases)
	}
}

func TestListRecentClampsLimit(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	env.runner.results["a"] = accepted("A")

	if _, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	for _, limit := range []int{-5, 0, 1000} {
		subs, err := env.svc.ListRecent(context.Background(), env.userID, limit)
		if err != nil {
			t.Fatalf("ListRecent(%d): %v", limit, err)
		}
		if len(subs) != 1 {
			t.Errorf("ListRecent(%d) = %d submissions, want 1", limit, len(subs))
		}
	}
}

func TestSubmitAcceptedUnlocksMilestoneAchievement(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	env.runner.results["a"] = accepted("A")

	badge := &model.Achievement{
		Name:          "First Steps",
		XPReward:      10,
		ConditionType: model.ConditionTasksCompleted,
		Threshold:     1,
	}
	if err := env.store.CreateAchievement(context.Background(), badge); err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	unlocked, err := env.store.ListUserAchievements(context.Background(), env.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 1 || unlocked[0].AchievementID != badge.ID {
		t.Fatalf("unlocked = %+v", unlocked)
	}

	// Task XP + badge XP.
	user, _ := env.store.GetUserByID(context.Background(), env.userID)
	if user.XP != 60 {
		t.Errorf("xp = %d, want 60", user.XP)
	}
}

func TestResubmitAcceptedTaskKeepsProgressIdempotent(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	env.runner.results["a"] = accepted("A")

	badge := &model.Achievement{Name: "First Steps", XPReward: 10, ConditionType: model.ConditionTasksCompleted, Threshold: 1}
	if err := env.store.CreateAchievement(context.Background(), badge); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq()); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	count, _ := env.store.CountCompletedTasks(context.Background(), env.userID)
	if count != 1 {
		t.Errorf("completed tasks = %d, want 1", count)
	}
	unlocked, _ := env.store.ListUserAchievements(context.Background(), env.userID)
	if len(unlocked) != 1 {
		t.Errorf("badge granted %d times, want once", len(unlocked))
	}
}

func TestSubmitZeroTestCasesIsWrongAnswer(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false)

	resp, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Submission.Status != model.SubmissionWrongAnswer {
		t.Errorf("status = %s, want wrong_answer for a task with no cases", resp.Submission.Status)
	}
}

func TestGetByIDHidesOtherUsersSubmissions(t *testing.T) {
	env := newSubmissionEnv(t)
	task := env.addTask(t, 0, 50, false, [2]string{"a", "A"})
	env.runner.results["a"] = accepted("A")

	resp, err := env.svc.Submit(context.Background(), env.userID, task.ID, submitReq())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	other := &model.User{Email: "other@example.com", Name: "Other", Role: model.RoleLearner}
	if err := env.store.CreateUser(context.Background(), other); err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.GetByID(context.Background(), other.ID, resp.Submission.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for foreign submission", err)
	}
	if _, err := env.svc.GetByID(context.Background(), env.userID, resp.Submission.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
}
