package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/codequestlab/codequest-backend/internal/model"
)

func (r *PostgresStore) CreateSubmission(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, user_id, task_id, code, language, status,
		                          test_cases_passed, total_test_cases)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, 0)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.TaskID, s.Code, s.Language, model.SubmissionPending).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *PostgresStore) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, task_id, code, language, status, test_cases_passed,
		        total_test_cases, COALESCE(judge_token, ''), created_at, updated_at
		 FROM submissions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.TaskID, &s.Code, &s.Language, &s.Status,
			&s.TestCasesPassed, &s.TotalTestCases, &s.JudgeToken, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FinalizeSubmission writes the terminal verdict. The status guard makes the
// transition single-shot: once terminal, a submission is never re-scored.
func (r *PostgresStore) FinalizeSubmission(ctx context.Context, id string, status model.SubmissionStatus, passed, total int, judgeToken string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET status = $1, test_cases_passed = $2, total_test_cases = $3,
		     judge_token = NULLIF($4, ''), updated_at = NOW()
		 WHERE id = $5 AND status = $6`,
		status, passed, total, judgeToken, id, model.SubmissionPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the row is missing or it already left pending.
		if _, getErr := r.GetSubmissionByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrAlreadyFinal
	}
	return nil
}

func (r *PostgresStore) ListSubmissionsByUser(ctx context.Context, userID, limit int) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, task_id, code, language, status, test_cases_passed,
		        total_test_cases, COALESCE(judge_token, ''), created_at, updated_at
		 FROM submissions WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.TaskID, &s.Code, &s.Language, &s.Status,
			&s.TestCasesPassed, &s.TotalTestCases, &s.JudgeToken, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
