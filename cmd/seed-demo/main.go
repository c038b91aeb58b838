package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/database"
	"github.com/codequestlab/codequest-backend/internal/logger"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// Seeds a demo Python course with two modules, five tasks, test cases,
// the standard milestone achievements, and a demo learner account.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)

	fmt.Println("=== Seeding Demo Content ===")

	// Check if the demo course exists already.
	var courseID int
	err = pool.QueryRow(ctx, "SELECT id FROM courses WHERE slug = $1", "python-foundations").Scan(&courseID)
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check existing course")
		}
		course := &model.Course{
			Slug:        "python-foundations",
			Title:       "Python Foundations",
			Description: "Learn Python from zero: input, output, arithmetic, and control flow.",
			XPReward:    500,
		}
		if err := store.CreateCourse(ctx, course); err != nil {
			log.Fatal().Err(err).Msg("Failed to create course")
		}
		courseID = course.ID
		fmt.Printf("Created course with ID: %d\n", courseID)
	} else {
		fmt.Printf("Found existing course with ID: %d\n", courseID)
	}

	type taskSeed struct {
		title   string
		prompt  string
		starter string
		cases   [][2]string
	}
	type moduleSeed struct {
		title string
		tasks []taskSeed
	}

	modules := []moduleSeed{
		{
			title: "Getting Started",
			tasks: []taskSeed{
				{
					title:   "Hello, World",
					prompt:  "Print exactly `Hello, World!` to standard output.",
					starter: "print(...)",
					cases:   [][2]string{{"", "Hello, World!"}},
				},
				{
					title:   "Echo",
					prompt:  "Read one line from standard input and print it back unchanged.",
					starter: "line = input()\n",
					cases:   [][2]string{{"ping", "ping"}, {"codequest", "codequest"}},
				},
				{
					title:   "Sum of Two",
					prompt:  "Read two integers, one per line, and print their sum.",
					starter: "a = int(input())\nb = int(input())\n",
					cases:   [][2]string{{"2\n3", "5"}, {"-7\n7", "0"}, {"100\n250", "350"}},
				},
			},
		},
		{
			title: "Control Flow",
			tasks: []taskSeed{
				{
					title:   "Even or Odd",
					prompt:  "Read an integer and print `even` or `odd`.",
					starter: "n = int(input())\n",
					cases:   [][2]string{{"4", "even"}, {"7", "odd"}, {"0", "even"}},
				},
				{
					title:   "Countdown",
					prompt:  "Read an integer n and print the numbers n down to 1, one per line.",
					starter: "n = int(input())\n",
					cases:   [][2]string{{"3", "3\n2\n1"}, {"1", "1"}},
				},
			},
		},
	}

	for mi, ms := range modules {
		module := &model.Module{CourseID: courseID, Title: ms.title, Position: mi}
		if err := store.CreateModule(ctx, module); err != nil {
			fmt.Printf("Skipping module %q: %v\n", ms.title, err)
			continue
		}
		for ti, ts := range ms.tasks {
			task := &model.Task{
				ModuleID:      module.ID,
				Title:         ts.title,
				Prompt:        ts.prompt,
				Position:      ti,
				TimeLimitSecs: 2,
				MemoryLimitMB: 128,
				StarterCode:   ts.starter,
				XPReward:      50,
			}
			if err := store.CreateTask(ctx, task); err != nil {
				fmt.Printf("Skipping task %q: %v\n", ts.title, err)
				continue
			}
			for ci, c := range ts.cases {
				tc := &model.TestCase{
					TaskID:         task.ID,
					Input:          c[0],
					ExpectedOutput: c[1],
					Hidden:         ci > 0, // first case visible, rest hidden
					Position:       ci,
				}
				if err := store.CreateTestCase(ctx, tc); err != nil {
					fmt.Printf("Skipping test case %d of %q: %v\n", ci, ts.title, err)
				}
			}
		}
		fmt.Printf("Seeded module %q with %d tasks\n", ms.title, len(ms.tasks))
	}

	// Milestone achievements.
	milestoneSeeds := []struct {
		threshold int
		name      string
		xp        int
	}{
		{1, "First Steps", 10},
		{5, "Getting Warm", 25},
		{10, "Problem Solver", 50},
		{25, "Code Machine", 100},
		{50, "Half Century", 200},
		{100, "Centurion", 500},
	}
	for _, m := range milestoneSeeds {
		a := &model.Achievement{
			Name:          m.name,
			Description:   fmt.Sprintf("Complete %d tasks", m.threshold),
			Icon:          "trophy",
			XPReward:      m.xp,
			ConditionType: model.ConditionTasksCompleted,
			Threshold:     m.threshold,
		}
		if err := store.CreateAchievement(ctx, a); err != nil {
			fmt.Printf("Skipping achievement %q: %v\n", m.name, err)
		}
	}
	graduate := &model.Achievement{
		Name:          "Graduate",
		Description:   "Complete your first course",
		Icon:          "scroll",
		XPReward:      250,
		ConditionType: model.ConditionCoursesCompleted,
		Threshold:     1,
	}
	if err := store.CreateAchievement(ctx, graduate); err != nil {
		fmt.Printf("Skipping achievement %q: %v\n", graduate.Name, err)
	}

	// Demo learner.
	hash, err := bcrypt.GenerateFromPassword([]byte("codequest-demo"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}
	demo := &model.User{
		Email:        "demo@codequest.dev",
		Name:         "Demo Learner",
		PasswordHash: string(hash),
		Role:         model.RoleLearner,
	}
	if err := store.CreateUser(ctx, demo); err != nil {
		fmt.Printf("Skipping demo user: %v\n", err)
	} else {
		fmt.Printf("Created demo learner with ID: %d\n", demo.ID)
	}

	fmt.Println("\nSeed completed!")
}
