package service

import (
	"context"
	"sort"
	"time"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests. It mirrors
// the semantics the SQL layer guarantees: idempotent progress upserts,
// at-most-once achievement grants, single-shot submission finalization.
type fakeStore struct {
	nextID int

	users        map[int]*model.User
	courses      map[int]*model.Course
	modules      map[int]*model.Module
	tasks        map[int]*model.Task
	testCases    map[int]*model.TestCase
	submissions  map[string]*model.Submission
	progress     []model.ProgressRecord
	achievements map[int]*model.Achievement
	grants       map[[2]int]time.Time
	certificates map[int]*model.Certificate
	xpEvents     []model.XPEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int]*model.User),
		courses:      make(map[int]*model.Course),
		modules:      make(map[int]*model.Module),
		tasks:        make(map[int]*model.Task),
		testCases:    make(map[int]*model.TestCase),
		submissions:  make(map[string]*model.Submission),
		achievements: make(map[int]*model.Achievement),
		grants:       make(map[[2]int]time.Time),
		certificates: make(map[int]*model.Certificate),
	}
}

var _ repository.Store = (*fakeStore)(nil)

func (f *fakeStore) id() int {
	f.nextID++
	return f.nextID
}

// ─── Users ───────────────────────────────────────────────────────────

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.id()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) AddUserXP(_ context.Context, userID, amount int) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.XP += amount
	return nil
}

func (f *fakeStore) TopUsersByXP(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	for _, u := range f.users {
		if u.Role != model.RoleLearner {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{UserID: u.ID, Name: u.Name, XP: u.XP})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].XP > entries[j].XP })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (f *fakeStore) UserRankByXP(_ context.Context, userID int) (int, error) {
	me, ok := f.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	rank := 1
	for _, u := range f.users {
		if u.Role != model.RoleLearner || u.ID == me.ID {
			continue
		}
		if u.XP > me.XP || (u.XP == me.XP && u.ID < me.ID) {
			rank++
		}
	}
	return rank, nil
}

// ─── Courses and modules ─────────────────────────────────────────────

func (f *fakeStore) ListCourses(_ context.Context) ([]model.Course, error) {
	var out []model.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetCourseByID(_ context.Context, id int) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CreateCourse(_ context.Context, c *model.Course) error {
	for _, existing := range f.courses {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = f.id()
	f.courses[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateCourse(_ context.Context, c *model.Course) error {
	if _, ok := f.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	f.courses[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCourse(_ context.Context, id int) error {
	if _, ok := f.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeStore) ListModules(_ context.Context, courseID int) ([]model.Module, error) {
	var out []model.Module
	for _, m := range f.modules {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) GetModuleByID(_ context.Context, id int) (*model.Module, error) {
	m, ok := f.modules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) CreateModule(_ context.Context, m *model.Module) error {
	m.ID = f.id()
	f.modules[m.ID] = m
	return nil
}

func (f *fakeStore) DeleteModule(_ context.Context, id int) error {
	if _, ok := f.modules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.modules, id)
	return nil
}

func (f *fakeStore) CountModules(_ context.Context, courseID int) (int, error) {
	n := 0
	for _, m := range f.modules {
		if m.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

// ─── Tasks and test cases ────────────────────────────────────────────

func (f *fakeStore) ListTasks(_ context.Context, moduleID int) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.ModuleID == moduleID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) GetTaskByID(_ context.Context, id int) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) GetTaskByPosition(_ context.Context, moduleID, position int) (*model.Task, error) {
	for _, t := range f.tasks {
		if t.ModuleID == moduleID && t.Position == position {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) CreateTask(_ context.Context, t *model.Task) error {
	t.ID = f.id()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTask(_ context.Context, t *model.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return repository.ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id int) error {
	if _, ok := f.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) CountTasksInModule(_ context.Context, moduleID int) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.ModuleID == moduleID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListTestCases(_ context.Context, taskID int) ([]model.TestCase, error) {
	var out []model.TestCase
	for _, tc := range f.testCases {
		if tc.TaskID == taskID {
			out = append(out, *tc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) CreateTestCase(_ context.Context, tc *model.TestCase) error {
	tc.ID = f.id()
	f.testCases[tc.ID] = tc
	return nil
}

func (f *fakeStore) DeleteTestCase(_ context.Context, id int) error {
	if _, ok := f.testCases[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.testCases, id)
	return nil
}

// ─── Submissions ─────────────────────────────────────────────────────

func (f *fakeStore) CreateSubmission(_ context.Context, s *model.Submission) error {
	s.CreatedAt = time.Now()
	cp := *s
	f.submissions[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FinalizeSubmission(_ context.Context, id string, status model.SubmissionStatus, passed, total int, judgeToken string) error {
	s, ok := f.submissions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Status != model.SubmissionPending {
		return repository.ErrAlreadyFinal
	}
	s.Status = status
	s.TestCasesPassed = passed
	s.TotalTestCases = total
	s.JudgeToken = judgeToken
	s.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) ListSubmissionsByUser(_ context.Context, userID, limit int) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range f.submissions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ─── Progress ────────────────────────────────────────────────────────

func sameKey(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func (f *fakeStore) UpsertProgress(_ context.Context, userID, courseID int, moduleID, taskID *int) error {
	for _, p := range f.progress {
		if p.UserID == userID && p.CourseID == courseID && sameKey(p.ModuleID, moduleID) && sameKey(p.TaskID, taskID) {
			return nil
		}
	}
	f.progress = append(f.progress, model.ProgressRecord{
		ID:          f.id(),
		UserID:      userID,
		CourseID:    courseID,
		ModuleID:    moduleID,
		TaskID:      taskID,
		CompletedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) TaskCompleted(_ context.Context, userID, taskID int) (bool, error) {
	for _, p := range f.progress {
		if p.UserID == userID && p.TaskID != nil && *p.TaskID == taskID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CompletedTaskIDsByCourse(_ context.Context, userID, courseID int) (map[int]struct{}, error) {
	out := make(map[int]struct{})
	for _, p := range f.progress {
		if p.UserID == userID && p.CourseID == courseID && p.TaskID != nil {
			out[*p.TaskID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) CountCompletedTasks(_ context.Context, userID int) (int, error) {
	n := 0
	for _, p := range f.progress {
		if p.UserID == userID && p.TaskID != nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountCompletedTasksInModule(_ context.Context, userID, moduleID int) (int, error) {
	n := 0
	for _, p := range f.progress {
		if p.UserID == userID && p.ModuleID != nil && *p.ModuleID == moduleID && p.TaskID != nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountCompletedModules(_ context.Context, userID, courseID int) (int, error) {
	n := 0
	for _, p := range f.progress {
		if p.UserID == userID && p.CourseID == courseID && p.ModuleID != nil && p.TaskID == nil {
			n++
		}
	}
	return n, nil
}

// ─── Achievements ────────────────────────────────────────────────────

func (f *fakeStore) ListAchievements(_ context.Context) ([]model.Achievement, error) {
	var out []model.Achievement
	for _, a := range f.achievements {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (f *fakeStore) ListAchievementsByCondition(_ context.Context, ct model.ConditionType) ([]model.Achievement, error) {
	var out []model.Achievement
	for _, a := range f.achievements {
		if a.ConditionType == ct {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (f *fakeStore) CreateAchievement(_ context.Context, a *model.Achievement) error {
	a.ID = f.id()
	f.achievements[a.ID] = a
	return nil
}

func (f *fakeStore) DeleteAchievement(_ context.Context, id int) error {
	if _, ok := f.achievements[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.achievements, id)
	return nil
}

func (f *fakeStore) GrantAchievement(_ context.Context, userID, achievementID int) (bool, error) {
	key := [2]int{userID, achievementID}
	if _, held := f.grants[key]; held {
		return false, nil
	}
	f.grants[key] = time.Now()
	return true, nil
}

func (f *fakeStore) ListUserAchievements(_ context.Context, userID int) ([]model.UserAchievement, error) {
	var out []model.UserAchievement
	for key, at := range f.grants {
		if key[0] != userID {
			continue
		}
		ua := model.UserAchievement{UserID: userID, AchievementID: key[1], UnlockedAt: at}
		if a, ok := f.achievements[key[1]]; ok {
			cp := *a
			ua.Achievement = &cp
		}
		out = append(out, ua)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievementID < out[j].AchievementID })
	return out, nil
}

// ─── Certificates ────────────────────────────────────────────────────

func (f *fakeStore) CreateCertificate(_ context.Context, c *model.Certificate) error {
	for _, existing := range f.certificates {
		if existing.UserID == c.UserID && existing.CourseID == c.CourseID {
			return repository.ErrDuplicate
		}
		if existing.Number == c.Number {
			return repository.ErrDuplicate
		}
	}
	c.ID = f.id()
	c.IssuedAt = time.Now()
	cp := *c
	f.certificates[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCertificate(_ context.Context, userID, courseID int) (*model.Certificate, error) {
	for _, c := range f.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetCertificateByNumber(_ context.Context, number string) (*model.Certificate, error) {
	for _, c := range f.certificates {
		if c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListCertificatesByUser(_ context.Context, userID int) ([]model.Certificate, error) {
	var out []model.Certificate
	for _, c := range f.certificates {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountCertificates(_ context.Context, userID int) (int, error) {
	n := 0
	for _, c := range f.certificates {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ─── XP audit ────────────────────────────────────────────────────────

func (f *fakeStore) InsertXPEvents(_ context.Context, events []model.XPEvent) error {
	f.xpEvents = append(f.xpEvents, events...)
	return nil
}
