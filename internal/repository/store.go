package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codequestlab/codequest-backend/internal/model"
)

// Storage errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrAlreadyFinal is returned when finalizing a submission that has
	// already reached a terminal status. Verdicts are written exactly once.
	ErrAlreadyFinal = errors.New("submission already finalized")
)

// Store is the persistence capability set consumed by the service layer.
// One conforming implementation (PostgresStore) is wired in at startup;
// tests substitute in-memory fakes.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// AddUserXP credits XP with an atomic in-database increment so
	// concurrent submissions accumulate instead of overwriting.
	AddUserXP(ctx context.Context, userID, amount int) error
	TopUsersByXP(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	UserRankByXP(ctx context.Context, userID int) (int, error)

	// Courses and modules
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourseByID(ctx context.Context, id int) (*model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) error
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, id int) error
	ListModules(ctx context.Context, courseID int) ([]model.Module, error)
	GetModuleByID(ctx context.Context, id int) (*model.Module, error)
	CreateModule(ctx context.Context, m *model.Module) error
	DeleteModule(ctx context.Context, id int) error
	CountModules(ctx context.Context, courseID int) (int, error)

	// Tasks and test cases
	ListTasks(ctx context.Context, moduleID int) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id int) (*model.Task, error)
	GetTaskByPosition(ctx context.Context, moduleID, position int) (*model.Task, error)
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, id int) error
	CountTasksInModule(ctx context.Context, moduleID int) (int, error)
	ListTestCases(ctx context.Context, taskID int) ([]model.TestCase, error)
	CreateTestCase(ctx context.Context, tc *model.TestCase) error
	DeleteTestCase(ctx context.Context, id int) error

	// Submissions
	CreateSubmission(ctx context.Context, s *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// FinalizeSubmission moves a pending submission to a terminal status.
	// It fails with ErrAlreadyFinal if the submission is no longer pending.
	FinalizeSubmission(ctx context.Context, id string, status model.SubmissionStatus, passed, total int, judgeToken string) error
	ListSubmissionsByUser(ctx context.Context, userID, limit int) ([]model.Submission, error)

	// Progress
	UpsertProgress(ctx context.Context, userID, courseID int, moduleID, taskID *int) error
	TaskCompleted(ctx context.Context, userID, taskID int) (bool, error)
	CompletedTaskIDsByCourse(ctx context.Context, userID, courseID int) (map[int]struct{}, error)
	CountCompletedTasks(ctx context.Context, userID int) (int, error)
	CountCompletedTasksInModule(ctx context.Context, userID, moduleID int) (int, error)
	CountCompletedModules(ctx context.Context, userID, courseID int) (int, error)

	// Achievements
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	ListAchievementsByCondition(ctx context.Context, ct model.ConditionType) ([]model.Achievement, error)
	CreateAchievement(ctx context.Context, a *model.Achievement) error
	DeleteAchievement(ctx context.Context, id int) error
	// GrantAchievement inserts the unlock if absent and reports whether a
	// row was actually inserted, so XP is credited at most once per badge.
	GrantAchievement(ctx context.Context, userID, achievementID int) (bool, error)
	ListUserAchievements(ctx context.Context, userID int) ([]model.UserAchievement, error)

	// Certificates
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	GetCertificate(ctx context.Context, userID, courseID int) (*model.Certificate, error)
	GetCertificateByNumber(ctx context.Context, number string) (*model.Certificate, error)
	ListCertificatesByUser(ctx context.Context, userID int) ([]model.Certificate, error)
	CountCertificates(ctx context.Context, userID int) (int, error)

	// XP audit
	InsertXPEvents(ctx context.Context, events []model.XPEvent) error
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the pgx-backed Store implementation.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)
