package model

import "time"

// Certificate proves completion of every module in a course.
// (UserID, CourseID) and Number are unique; re-issuing is rejected.
type Certificate struct {
	ID       int       `json:"id"`
	UserID   int       `json:"user_id"`
	CourseID int       `json:"course_id"`
	Number   string    `json:"number"`
	IssuedAt time.Time `json:"issued_at"`

	CourseTitle string `json:"course_title,omitempty"`
	UserName    string `json:"user_name,omitempty"`
}

// LeaderboardEntry is one row of the global XP ranking.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	XP     int    `json:"xp"`
}
