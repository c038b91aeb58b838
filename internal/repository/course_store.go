package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/codequestlab/codequest-backend/internal/model"
)

func (r *PostgresStore) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, slug, title, description, xp_reward, created_at, updated_at
		 FROM courses ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.XPReward, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *PostgresStore) GetCourseByID(ctx context.Context, id int) (*model.Course, error) {
	var c model.Course
	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, title, description, xp_reward, created_at, updated_at
		 FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.XPReward, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresStore) CreateCourse(ctx context.Context, c *model.Course) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (slug, title, description, xp_reward)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Slug, c.Title, c.Description, c.XPReward).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) UpdateCourse(ctx context.Context, c *model.Course) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE courses SET slug = $1, title = $2, description = $3, xp_reward = $4, updated_at = NOW()
		 WHERE id = $5`,
		c.Slug, c.Title, c.Description, c.XPReward, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) DeleteCourse(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) ListModules(ctx context.Context, courseID int) ([]model.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, position, created_at, updated_at
		 FROM modules WHERE course_id = $1 ORDER BY position ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *PostgresStore) GetModuleByID(ctx context.Context, id int) (*model.Module, error) {
	var m model.Module
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, position, created_at, updated_at
		 FROM modules WHERE id = $1`, id).
		Scan(&m.ID, &m.CourseID, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresStore) CreateModule(ctx context.Context, m *model.Module) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO modules (course_id, title, position)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		m.CourseID, m.Title, m.Position).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) DeleteModule(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) CountModules(ctx context.Context, courseID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM modules WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}
