package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/codequestlab/codequest-backend/internal/model"
)

// CreateCertificate persists a certificate once. The unique constraints on
// (user_id, course_id) and number make re-issuing fail with ErrDuplicate
// rather than ever producing a second certificate.
func (r *PostgresStore) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO certificates (user_id, course_id, number)
		 VALUES ($1, $2, $3)
		 RETURNING id, issued_at`,
		c.UserID, c.CourseID, c.Number).
		Scan(&c.ID, &c.IssuedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) GetCertificate(ctx context.Context, userID, courseID int) (*model.Certificate, error) {
	return r.scanCertificate(r.pool.QueryRow(ctx,
		certificateQuery+` WHERE c.user_id = $1 AND c.course_id = $2`, userID, courseID))
}

func (r *PostgresStore) GetCertificateByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	return r.scanCertificate(r.pool.QueryRow(ctx,
		certificateQuery+` WHERE c.number = $1`, number))
}

func (r *PostgresStore) ListCertificatesByUser(ctx context.Context, userID int) ([]model.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		certificateQuery+` WHERE c.user_id = $1 ORDER BY c.issued_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		cert, err := r.scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, *cert)
	}
	return certs, rows.Err()
}

func (r *PostgresStore) CountCertificates(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM certificates WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

const certificateQuery = `
	SELECT c.id, c.user_id, c.course_id, c.number, c.issued_at, co.title, u.name
	FROM certificates c
	JOIN courses co ON co.id = c.course_id
	JOIN users u ON u.id = c.user_id`

func (r *PostgresStore) scanCertificate(row pgx.Row) (*model.Certificate, error) {
	var c model.Certificate
	err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.Number, &c.IssuedAt, &c.CourseTitle, &c.UserName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
