package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
	ws "github.com/codequestlab/codequest-backend/internal/websocket"
)

// Certificate errors.
var (
	ErrNotEligible      = errors.New("not all course modules are completed")
	ErrAlreadyCertified = errors.New("certificate already issued for this course")
)

// CertificateService issues course completion certificates.
type CertificateService struct {
	store        repository.Store
	progress     *ProgressService
	achievements *AchievementService
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(store repository.Store, progress *ProgressService, achievements *AchievementService, rdb *redis.Client, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		store:        store,
		progress:     progress,
		achievements: achievements,
		rdb:          rdb,
		log:          log.With().Str("component", "certificate_service").Logger(),
	}
}

// Issue grants a certificate once every module of the course is completed.
// The unique (user, course) constraint rejects re-issuing instead of ever
// duplicating; eligibility, course XP, and course-level achievements are
// all settled before the caller gets the certificate back.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID int) (*model.Certificate, error) {
	course, err := s.store.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completed, err := s.progress.CourseCompleted(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, ErrNotEligible
	}

	cert := &model.Certificate{
		UserID:   userID,
		CourseID: courseID,
		Number:   newCertificateNumber(),
	}
	if err := s.store.CreateCertificate(ctx, cert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyCertified
		}
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	if err := s.progress.MarkCourseComplete(ctx, userID, courseID); err != nil {
		return nil, err
	}

	if course.XPReward > 0 {
		if err := s.store.AddUserXP(ctx, userID, course.XPReward); err != nil {
			return nil, fmt.Errorf("credit course xp: %w", err)
		}
		s.publishXPEvent(ctx, model.XPEvent{UserID: userID, Amount: course.XPReward, Reason: "course_completed"})
	}

	if _, err := s.achievements.EvaluateForUser(ctx, userID, model.ConditionCoursesCompleted); err != nil {
		return nil, err
	}

	s.publishActivity(ctx, ws.ActivityEvent{
		Type:   ws.ActivityCertificateIssued,
		UserID: userID,
		Detail: course.Title,
		XP:     course.XPReward,
	})

	s.log.Info().
		Int("user_id", userID).
		Int("course_id", courseID).
		Str("number", cert.Number).
		Msg("Certificate issued")

	cert.CourseTitle = course.Title
	return cert, nil
}

// Get returns the user's certificate for a course.
func (s *CertificateService) Get(ctx context.Context, userID, courseID int) (*model.Certificate, error) {
	return s.store.GetCertificate(ctx, userID, courseID)
}

// GetByNumber resolves a certificate by its public number (verification).
func (s *CertificateService) GetByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	return s.store.GetCertificateByNumber(ctx, number)
}

// ListForUser returns all of the user's certificates.
func (s *CertificateService) ListForUser(ctx context.Context, userID int) ([]model.Certificate, error) {
	return s.store.ListCertificatesByUser(ctx, userID)
}

// newCertificateNumber builds a unique public certificate number, e.g.
// CQ-2026-3F2A9C81D4.
func newCertificateNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("CQ-%d-%s", time.Now().Year(), strings.ToUpper(raw[:10]))
}

func (s *CertificateService) publishXPEvent(ctx context.Context, event model.XPEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.XPEventsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue XP event")
	}
}

func (s *CertificateService) publishActivity(ctx context.Context, event ws.ActivityEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ActivityFeedChannel(), raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish activity event")
	}
}
