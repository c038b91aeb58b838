package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/codequestlab/codequest-backend/internal/model"
)

const taskColumns = `id, module_id, title, prompt, position, time_limit_secs,
	memory_limit_mb, starter_code, solution, xp_reward, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.ModuleID, &t.Title, &t.Prompt, &t.Position,
		&t.TimeLimitSecs, &t.MemoryLimitMB, &t.StarterCode, &t.Solution,
		&t.XPReward, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresStore) ListTasks(ctx context.Context, moduleID int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE module_id = $1 ORDER BY position ASC`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *PostgresStore) GetTaskByID(ctx context.Context, id int) (*model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// GetTaskByPosition fetches the task at an explicit position inside a module.
// The unlock chain walks positions; tasks are never ordered by id.
func (r *PostgresStore) GetTaskByPosition(ctx context.Context, moduleID, position int) (*model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE module_id = $1 AND position = $2`, moduleID, position))
}

func (r *PostgresStore) CreateTask(ctx context.Context, t *model.Task) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (module_id, title, prompt, position, time_limit_secs,
		                    memory_limit_mb, starter_code, solution, xp_reward)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		t.ModuleID, t.Title, t.Prompt, t.Position, t.TimeLimitSecs,
		t.MemoryLimitMB, t.StarterCode, t.Solution, t.XPReward).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) UpdateTask(ctx context.Context, t *model.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, prompt = $2, position = $3, time_limit_secs = $4,
		        memory_limit_mb = $5, starter_code = $6, solution = $7, xp_reward = $8,
		        updated_at = NOW()
		 WHERE id = $9`,
		t.Title, t.Prompt, t.Position, t.TimeLimitSecs, t.MemoryLimitMB,
		t.StarterCode, t.Solution, t.XPReward, t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) DeleteTask(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) CountTasksInModule(ctx context.Context, moduleID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE module_id = $1`, moduleID).Scan(&n)
	return n, err
}

func (r *PostgresStore) ListTestCases(ctx context.Context, taskID int) ([]model.TestCase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, input, expected_output, hidden, position, created_at
		 FROM test_cases WHERE task_id = $1 ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.TaskID, &tc.Input, &tc.ExpectedOutput, &tc.Hidden, &tc.Position, &tc.CreatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

func (r *PostgresStore) CreateTestCase(ctx context.Context, tc *model.TestCase) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_cases (task_id, input, expected_output, hidden, position)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tc.TaskID, tc.Input, tc.ExpectedOutput, tc.Hidden, tc.Position).
		Scan(&tc.ID, &tc.CreatedAt)
}

func (r *PostgresStore) DeleteTestCase(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM test_cases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
