package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/repository"
)

// DatabaseSeeder provisions demo data for local development: one recruiter
// account and one role with a submission token and rubric.
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	if err := s.seedRecruiter(ctx); err != nil {
		return err
	}
	if err := s.seedDemoRole(ctx); err != nil {
		return err
	}

	slog.Info("Database seeding complete")
	return nil
}

func (s *DatabaseSeeder) seedRecruiter(ctx context.Context) error {
	existing, err := s.repo.GetUserByEmail(ctx, "recruiter@example.com")
	if err != nil {
		return fmt.Errorf("failed to check seed recruiter: %w", err)
	}
	if existing != nil {
		slog.Info("Seed recruiter already exists, skipping")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	recruiter := &models.User{
		Email:    "recruiter@example.com",
		Password: string(hashedPassword),
		FullName: "Demo Recruiter",
		Role:     "recruiter",
	}
	if err := s.repo.CreateUser(ctx, recruiter); err != nil {
		return fmt.Errorf("failed to seed recruiter: %w", err)
	}
	slog.Info("Seed recruiter created", "email", recruiter.Email)
	return nil
}

func (s *DatabaseSeeder) seedDemoRole(ctx context.Context) error {
	existing, err := s.repo.GetRoleByToken(ctx, "demo-backend-engineer")
	if err != nil {
		return fmt.Errorf("failed to check seed role: %w", err)
	}
	if existing != nil {
		slog.Info("Seed role already exists, skipping")
		return nil
	}

	role := &models.Role{
		Title:       "Backend Engineer",
		Description: "Designs and operates the services behind the hiring pipeline: HTTP APIs, relational storage, vendor integrations.",
		Rubric: models.Rubric{
			{Question: "Walk through a service you designed end to end. What would you change today?", Category: "system_design"},
			{Question: "How do you make an external API call safe to retry?", Category: "reliability"},
			{Question: "Describe a production incident you debugged and how you found the root cause.", Category: "operations"},
		},
		SubmissionToken: "demo-backend-engineer",
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return fmt.Errorf("failed to seed role: %w", err)
	}
	slog.Info("Seed role created", "role_id", role.ID, "submission_token", role.SubmissionToken)
	return nil
}
