package repository

import (
	"context"

	"github.com/codequestlab/codequest-backend/internal/model"
)

// UpsertProgress records completion of a (user, course, module?, task?)
// tuple. The partial unique indexes treat NULL module/task as distinguishing
// key components; each tuple shape targets its own index with ON CONFLICT
// DO NOTHING, so concurrent upserts of the same tuple both succeed and
// re-completion keeps the original completion timestamp.
func (r *PostgresStore) UpsertProgress(ctx context.Context, userID, courseID int, moduleID, taskID *int) error {
	var err error
	switch {
	case taskID != nil:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO progress_records (user_id, course_id, module_id, task_id)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, course_id, module_id, task_id)
			 WHERE task_id IS NOT NULL DO NOTHING`,
			userID, courseID, moduleID, taskID)
	case moduleID != nil:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO progress_records (user_id, course_id, module_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, course_id, module_id)
			 WHERE module_id IS NOT NULL AND task_id IS NULL DO NOTHING`,
			userID, courseID, moduleID)
	default:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO progress_records (user_id, course_id)
			 VALUES ($1, $2)
			 ON CONFLICT (user_id, course_id)
			 WHERE module_id IS NULL AND task_id IS NULL DO NOTHING`,
			userID, courseID)
	}
	return err
}

func (r *PostgresStore) TaskCompleted(ctx context.Context, userID, taskID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM progress_records WHERE user_id = $1 AND task_id = $2
		 )`, userID, taskID).Scan(&exists)
	return exists, err
}

func (r *PostgresStore) CompletedTaskIDsByCourse(ctx context.Context, userID, courseID int) (map[int]struct{}, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT task_id FROM progress_records
		 WHERE user_id = $1 AND course_id = $2 AND task_id IS NOT NULL`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]struct{})
	for rows.Next() {
		var taskID int
		if err := rows.Scan(&taskID); err != nil {
			return nil, err
		}
		done[taskID] = struct{}{}
	}
	return done, rows.Err()
}

// CountCompletedTasks returns the user's lifetime count of completed-task
// progress records across all courses. Achievement thresholds key on this.
func (r *PostgresStore) CountCompletedTasks(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_records
		 WHERE user_id = $1 AND task_id IS NOT NULL`, userID).Scan(&n)
	return n, err
}

func (r *PostgresStore) CountCompletedTasksInModule(ctx context.Context, userID, moduleID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_records
		 WHERE user_id = $1 AND module_id = $2 AND task_id IS NOT NULL`, userID, moduleID).Scan(&n)
	return n, err
}

// CountCompletedModules counts module-level records only (task_id IS NULL),
// which is what certificate eligibility checks.
func (r *PostgresStore) CountCompletedModules(ctx context.Context, userID, courseID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_records
		 WHERE user_id = $1 AND course_id = $2 AND module_id IS NOT NULL AND task_id IS NULL`,
		userID, courseID).Scan(&n)
	return n, err
}

func (r *PostgresStore) InsertXPEvents(ctx context.Context, events []model.XPEvent) error {
	if len(events) == 0 {
		return nil
	}

	userIDs := make([]int, 0, len(events))
	amounts := make([]int, 0, len(events))
	reasons := make([]string, 0, len(events))
	for _, e := range events {
		userIDs = append(userIDs, e.UserID)
		amounts = append(amounts, e.Amount)
		reasons = append(reasons, e.Reason)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO xp_events (user_id, amount, reason)
		 SELECT * FROM UNNEST($1::int[], $2::int[], $3::text[])`,
		userIDs, amounts, reasons)
	return err
}
