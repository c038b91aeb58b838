package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/codequestlab/codequest-backend/internal/model"
)

const achievementColumns = `id, name, description, icon, xp_reward, condition_type, threshold, created_at`

func (r *PostgresStore) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+achievementColumns+` FROM achievements ORDER BY condition_type, threshold ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

func (r *PostgresStore) ListAchievementsByCondition(ctx context.Context, ct model.ConditionType) ([]model.Achievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+achievementColumns+` FROM achievements
		 WHERE condition_type = $1 ORDER BY threshold ASC`, ct)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

func (r *PostgresStore) CreateAchievement(ctx context.Context, a *model.Achievement) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO achievements (name, description, icon, xp_reward, condition_type, threshold)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.Name, a.Description, a.Icon, a.XPReward, a.ConditionType, a.Threshold).
		Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresStore) DeleteAchievement(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM achievements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GrantAchievement unlocks a badge if the user does not already hold it.
// ON CONFLICT DO NOTHING keeps the grant idempotent; the returned bool is
// true only when this call inserted the unlock, so callers credit the
// badge's XP at most once.
func (r *PostgresStore) GrantAchievement(ctx context.Context, userID, achievementID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		userID, achievementID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresStore) ListUserAchievements(ctx context.Context, userID int) ([]model.UserAchievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ua.id, ua.user_id, ua.achievement_id, ua.unlocked_at,
		        a.id, a.name, a.description, a.icon, a.xp_reward, a.condition_type, a.threshold, a.created_at
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = $1
		 ORDER BY ua.unlocked_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unlocked []model.UserAchievement
	for rows.Next() {
		var ua model.UserAchievement
		var a model.Achievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.UnlockedAt,
			&a.ID, &a.Name, &a.Description, &a.Icon, &a.XPReward, &a.ConditionType, &a.Threshold, &a.CreatedAt); err != nil {
			return nil, err
		}
		ua.Achievement = &a
		unlocked = append(unlocked, ua)
	}
	return unlocked, rows.Err()
}

func scanAchievements(rows pgx.Rows) ([]model.Achievement, error) {
	var achievements []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.XPReward, &a.ConditionType, &a.Threshold, &a.CreatedAt); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}
