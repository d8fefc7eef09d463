package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hireflow/backend/models"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Role{},
		&models.Candidate{},
		&models.OneTimeToken{},
		&models.Interview{},
		&models.Report{},
	)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505). The constraint, not the pre-check query, is the
// source of truth for uniqueness under concurrent writers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Role operations
func (r *GORMRepository) CreateRole(ctx context.Context, role *models.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		slog.Error("Failed to create role", "error", err)
		return err
	}
	slog.Info("Role created", "role_id", role.ID, "title", role.Title)
	return nil
}

func (r *GORMRepository) GetRoleByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get role by ID", "error", err, "role_id", id)
		return nil, err
	}
	return &role, nil
}

func (r *GORMRepository) GetRoleByToken(ctx context.Context, token string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("submission_token = ?", token).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get role by submission token", "error", err)
		return nil, err
	}
	return &role, nil
}

func (r *GORMRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&roles).Error; err != nil {
		slog.Error("Failed to list roles", "error", err)
		return nil, err
	}
	return roles, nil
}

// UpdateRoleRubric updates the only mutable role fields. Title, description
// and submission token are immutable after creation.
func (r *GORMRepository) UpdateRoleRubric(ctx context.Context, roleID string, rubric models.Rubric, knowledgeBase string) error {
	if err := r.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", roleID).
		Updates(map[string]interface{}{"rubric": rubric, "knowledge_base": knowledgeBase}).Error; err != nil {
		slog.Error("Failed to update role rubric", "error", err, "role_id", roleID)
		return err
	}
	slog.Info("Role rubric updated", "role_id", roleID)
	return nil
}
