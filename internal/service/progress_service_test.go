package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/model"
)

type progressEnv struct {
	store *fakeStore
	svc   *ProgressService

	userID   int
	courseID int
}

func newProgressEnv(t *testing.T) *progressEnv {
	t.Helper()
	store := newFakeStore()
	env := &progressEnv{store: store, svc: NewProgressService(store, zerolog.Nop())}

	user := &model.User{Email: "u@example.com", Name: "U", Role: model.RoleLearner}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	env.userID = user.ID

	course := &model.Course{Slug: "c", Title: "Course"}
	if err := store.CreateCourse(context.Background(), course); err != nil {
		t.Fatal(err)
	}
	env.courseID = course.ID
	return env
}

func (e *progressEnv) addModule(t *testing.T, position int) *model.Module {
	t.Helper()
	m := &model.Module{CourseID: e.courseID, Title: "Module", Position: position}
	if err := e.store.CreateModule(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	return m
}

func (e *progressEnv) addTask(t *testing.T, moduleID, position int) *model.Task {
	t.Helper()
	task := &model.Task{ModuleID: moduleID, Title: "Task", Position: position, TimeLimitSecs: 2, MemoryLimitMB: 128}
	if err := e.store.CreateTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	return task
}

func TestIsUnlockedFirstPosition(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	task := env.addTask(t, mod.ID, 0)

	unlocked, err := env.svc.IsUnlocked(context.Background(), env.userID, task)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if !unlocked {
		t.Error("position 0 must always be unlocked")
	}
}

func TestIsUnlockedRequiresPredecessor(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	first := env.addTask(t, mod.ID, 0)
	second := env.addTask(t, mod.ID, 1)

	unlocked, err := env.svc.IsUnlocked(context.Background(), env.userID, second)
	if err != nil {
		t.Fatal(err)
	}
	if unlocked {
		t.Error("position 1 must be locked before position 0 is completed")
	}

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, first); err != nil {
		t.Fatal(err)
	}

	unlocked, err = env.svc.IsUnlocked(context.Background(), env.userID, second)
	if err != nil {
		t.Fatal(err)
	}
	if !unlocked {
		t.Error("position 1 must unlock once position 0 is completed")
	}
}

func TestIsUnlockedPositionGap(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	// Positions 0 and 2: nothing exists at position 1.
	env.addTask(t, mod.ID, 0)
	gapped := env.addTask(t, mod.ID, 2)

	unlocked, err := env.svc.IsUnlocked(context.Background(), env.userID, gapped)
	if err != nil {
		t.Fatal(err)
	}
	if !unlocked {
		t.Error("a task with no predecessor at position-1 must be unlocked")
	}
}

func TestMarkTaskCompleteRollsUpModule(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	t1 := env.addTask(t, mod.ID, 0)
	t2 := env.addTask(t, mod.ID, 1)

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, t1); err != nil {
		t.Fatal(err)
	}
	done, _ := env.store.CountCompletedModules(context.Background(), env.userID, env.courseID)
	if done != 0 {
		t.Error("module must not complete with one of two tasks done")
	}

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, t2); err != nil {
		t.Fatal(err)
	}
	done, _ = env.store.CountCompletedModules(context.Background(), env.userID, env.courseID)
	if done != 1 {
		t.Error("module must complete once every task is done")
	}
}

func TestMarkTaskCompleteIdempotent(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	task := env.addTask(t, mod.ID, 0)

	for i := 0; i < 3; i++ {
		if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, task); err != nil {
			t.Fatal(err)
		}
	}

	count, _ := env.store.CountCompletedTasks(context.Background(), env.userID)
	if count != 1 {
		t.Errorf("completed tasks = %d, want 1", count)
	}
	modules, _ := env.store.CountCompletedModules(context.Background(), env.userID, env.courseID)
	if modules != 1 {
		t.Errorf("completed modules = %d, want 1", modules)
	}
}

func TestMarkTaskCompleteRacingDuplicateIsNoOp(t *testing.T) {
	env := newProgressEnv(t)
	mod := env.addModule(t, 0)
	task := env.addTask(t, mod.ID, 0)

	// A concurrent accepted submission already inserted the task tuple
	// between this call's check and its insert. The upsert must swallow
	// the collision, not surface it as an error after the verdict is final.
	if err := env.store.UpsertProgress(context.Background(), env.userID, env.courseID, &mod.ID, &task.ID); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, task); err != nil {
		t.Fatalf("MarkTaskComplete on existing tuple: %v", err)
	}

	count, _ := env.store.CountCompletedTasks(context.Background(), env.userID)
	if count != 1 {
		t.Errorf("completed tasks = %d, want 1", count)
	}
}

func TestCourseCompleted(t *testing.T) {
	env := newProgressEnv(t)
	m1 := env.addModule(t, 0)
	m2 := env.addModule(t, 1)
	t1 := env.addTask(t, m1.ID, 0)
	t2 := env.addTask(t, m2.ID, 0)

	completed, err := env.svc.CourseCompleted(context.Background(), env.userID, env.courseID)
	if err != nil {
		t.Fatal(err)
	}
	if completed {
		t.Error("course must not be complete with no progress")
	}

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, t1); err != nil {
		t.Fatal(err)
	}
	completed, _ = env.svc.CourseCompleted(context.Background(), env.userID, env.courseID)
	if completed {
		t.Error("course must not be complete with one of two modules done")
	}

	if err := env.svc.MarkTaskComplete(context.Background(), env.userID, env.courseID, t2); err != nil {
		t.Fatal(err)
	}
	completed, _ = env.svc.CourseCompleted(context.Background(), env.userID, env.courseID)
	if !completed {
		t.Error("course must be complete once every module is done")
	}
}

func TestCourseCompletedEmptyCourse(t *testing.T) {
	env := newProgressEnv(t)

	completed, err := env.svc.CourseCompleted(context.Background(), env.userID, env.courseID)
	if err != nil {
		t.Fatal(err)
	}
	if completed {
		t.Error("a course with no modules must never count as completed")
	}
}
