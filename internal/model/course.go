package model

import "time"

// Course is a top-level learning track composed of ordered modules.
type Course struct {
	ID          int       `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPReward    int       `json:"xp_reward"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Modules []Module `json:"modules,omitempty"`
}

// Module groups tasks inside a course. Position is the explicit ordering
// within the course; unlock chains walk positions, never IDs.
type Module struct {
	ID        int       `json:"id"`
	CourseID  int       `json:"course_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks []Task `json:"tasks,omitempty"`
}

// CreateCourseRequest is the admin payload for creating a course.
type CreateCourseRequest struct {
	Slug        string `json:"slug" binding:"required,min=2,max=100"`
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"max=5000"`
	XPReward    int    `json:"xp_reward" binding:"gte=0"`
}

// UpdateCourseRequest is the admin payload for updating a course.
type UpdateCourseRequest struct {
	Slug        string `json:"slug" binding:"required,min=2,max=100"`
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"max=5000"`
	XPReward    int    `json:"xp_reward" binding:"gte=0"`
}

// CreateModuleRequest is the admin payload for adding a module to a course.
type CreateModuleRequest struct {
	Title    string `json:"title" binding:"required,min=2,max=200"`
	Position int    `json:"position" binding:"gte=0"`
}
