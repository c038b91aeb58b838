package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codequestlab/codequest-backend/internal/model"
)

func (r *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, xp, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.XP, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, xp, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.XP, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, xp, created_at, updated_at
		 FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.XP, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddUserXP applies an atomic increment. Concurrent credits from parallel
// submissions accumulate; the counter is never read back and rewritten.
func (r *PostgresStore) AddUserXP(ctx context.Context, userID, amount int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET xp = xp + $1, updated_at = NOW() WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) TopUsersByXP(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, xp FROM users
		 WHERE role = 'learner'
		 ORDER BY xp DESC, id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := model.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.UserID, &e.Name, &e.XP); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UserRankByXP returns the user's 1-based leaderboard rank among learners,
// with the same tiebreak as TopUsersByXP (xp DESC, id ASC).
func (r *PostgresStore) UserRankByXP(ctx context.Context, userID int) (int, error) {
	var rank int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM users u, users me
		 WHERE me.id = $1 AND u.role = 'learner' AND u.id <> me.id
		   AND (u.xp > me.xp OR (u.xp = me.xp AND u.id < me.id))`, userID).
		Scan(&rank)
	return rank, err
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
