package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// CourseService serves the learner-facing catalog and admin course CRUD.
type CourseService struct {
	store    repository.Store
	progress *ProgressService
	log      zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(store repository.Store, progress *ProgressService, log zerolog.Logger) *CourseService {
	return &CourseService{
		store:    store,
		progress: progress,
		log:      log.With().Str("component", "course_service").Logger(),
	}
}

// List returns all courses without module expansion.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.store.ListCourses(ctx)
}

// GetForUser returns a course with its modules and tasks, each task
// annotated with the user's unlock and completion state. Reference
// solutions and test cases are stripped — the catalog never leaks them.
func (s *CourseService) GetForUser(ctx context.Context, userID, courseID int) (*model.Course, error) {
	course, err := s.store.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.store.ListModules(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	done, err := s.store.CompletedTaskIDsByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}

	for mi := range modules {
		tasks, err := s.store.ListTasks(ctx, modules[mi].ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}

		// Walk the chain in position order: a task is unlocked when it is
		// first or its predecessor is completed.
		prevCompleted := true
		for ti := range tasks {
			t := &tasks[ti]
			_, completed := done[t.ID]
			unlocked := ti == 0 || prevCompleted

			t.Completed = &completed
			t.Unlocked = &unlocked
			t.Solution = ""
			t.StarterCode = ""
			prevCompleted = completed
		}
		modules[mi].Tasks = tasks
	}

	course.Modules = modules
	return course, nil
}

// GetTaskForUser returns one task with starter code and visible test cases,
// enforcing the unlock chain. Hidden cases and the reference solution are
// withheld.
func (s *CourseService) GetTaskForUser(ctx context.Context, userID, taskID int) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.progress.IsUnlocked(ctx, userID, task)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, ErrTaskLocked
	}

	cases, err := s.store.ListTestCases(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	visible := make([]model.TestCase, 0, len(cases))
	for _, tc := range cases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}

	completed, err := s.store.TaskCompleted(ctx, userID, task.ID)
	if err != nil {
		return nil, err
	}

	task.Solution = ""
	task.TestCases = visible
	task.Unlocked = &unlocked
	task.Completed = &completed
	return task, nil
}

// ─── Admin CRUD ─────────────────────────────────────────────────────

func (s *CourseService) Create(ctx context.Context, c *model.Course) error {
	return s.store.CreateCourse(ctx, c)
}

func (s *CourseService) Update(ctx context.Context, c *model.Course) error {
	return s.store.UpdateCourse(ctx, c)
}

func (s *CourseService) Delete(ctx context.Context, id int) error {
	return s.store.DeleteCourse(ctx, id)
}

func (s *CourseService) CreateModule(ctx context.Context, m *model.Module) error {
	if _, err := s.store.GetCourseByID(ctx, m.CourseID); err != nil {
		return err
	}
	return s.store.CreateModule(ctx, m)
}

func (s *CourseService) DeleteModule(ctx context.Context, id int) error {
	return s.store.DeleteModule(ctx, id)
}

func (s *CourseService) CreateTask(ctx context.Context, t *model.Task) error {
	if _, err := s.store.GetModuleByID(ctx, t.ModuleID); err != nil {
		return err
	}
	return s.store.CreateTask(ctx, t)
}

// GetTaskAdmin returns a task with all test cases and the reference
// solution intact.
func (s *CourseService) GetTaskAdmin(ctx context.Context, taskID int) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	cases, err := s.store.ListTestCases(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.TestCases = cases
	return task, nil
}

func (s *CourseService) UpdateTask(ctx context.Context, t *model.Task) error {
	return s.store.UpdateTask(ctx, t)
}

func (s *CourseService) DeleteTask(ctx context.Context, id int) error {
	return s.store.DeleteTask(ctx, id)
}

func (s *CourseService) CreateTestCase(ctx context.Context, tc *model.TestCase) error {
	if _, err := s.store.GetTaskByID(ctx, tc.TaskID); err != nil {
		return err
	}
	return s.store.CreateTestCase(ctx, tc)
}

func (s *CourseService) DeleteTestCase(ctx context.Context, id int) error {
	return s.store.DeleteTestCase(ctx, id)
}
