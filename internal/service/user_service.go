package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateActivityLog(ctx context.Context, log *models.ActivityLog) error
	ListActivityLogs(ctx context.Context, userID string) ([]models.ActivityLog, error)
}

// Actor identifies who performs a mutation.
type Actor struct {
	ID   string
	Name string
	IP   string
}

// UserService provides user administration use cases.
type UserService struct {
	repo      userRepository
	views     collectionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(repo userRepository, views collectionInvalidator, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, views: views, validator: validate, logger: logger}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Update modifies the profile fields of a user.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	return s.mutate(ctx, id, actor, "update_user", func(user *models.User) (string, error) {
		var changed []string
		if req.Name != nil {
			user.Name = *req.Name
			changed = append(changed, "name")
		}
		if req.Email != nil {
			user.Email = strings.ToLower(*req.Email)
			changed = append(changed, "email")
		}
		if req.Active != nil {
			user.Active = *req.Active
			changed = append(changed, "active")
		}
		return "updated " + strings.Join(changed, ", "), nil
	})
}

// UpdateRoles replaces the roles of a user.
func (s *UserService) UpdateRoles(ctx context.Context, id string, req dto.UpdateRolesRequest, actor Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roles payload")
	}
	roles, err := normalizeCatalog(req.Roles, models.AvailableRoles(), "role")
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, actor, "update_roles", func(user *models.User) (string, error) {
		user.Roles = roles
		return "roles: " + strings.Join(roles, ", "), nil
	})
}

// UpdatePermissions replaces the permissions of a user.
func (s *UserService) UpdatePermissions(ctx context.Context, id string, req dto.UpdatePermissionsRequest, actor Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permissions payload")
	}
	perms, err := normalizeCatalog(req.Permissions, models.AvailablePermissions(), "permission")
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, actor, "update_permissions", func(user *models.User) (string, error) {
		user.Permissions = perms
		return "permissions: " + strings.Join(perms, ", "), nil
	})
}

// ToggleStatus flips the active flag of a user.
func (s *UserService) ToggleStatus(ctx context.Context, id string, actor Actor) (*models.User, error) {
	return s.mutate(ctx, id, actor, "toggle_status", func(user *models.User) (string, error) {
		if user.ID == actor.ID && user.Active {
			return "", appErrors.Clone(appErrors.ErrConflict, "cannot deactivate your own account")
		}
		user.Active = !user.Active
		return fmt.Sprintf("active=%t", user.Active), nil
	})
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string, actor Actor) error {
	if id == actor.ID {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.views.Invalidate(ctx)
	s.record(ctx, id, actor, "delete_user", "deleted by "+actor.Name)
	return nil
}

// ActivityLogs returns the activity of one user, newest first.
func (s *UserService) ActivityLogs(ctx context.Context, userID string) ([]models.ActivityLog, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.activity(ctx, userID)
}

// AllActivityLogs returns the activity of every user, newest first.
func (s *UserService) AllActivityLogs(ctx context.Context) ([]models.ActivityLog, error) {
	return s.activity(ctx, "")
}

// Roles lists the role catalog.
func (s *UserService) Roles() []models.UserRole {
	return models.AvailableRoles()
}

// Permissions lists the permission catalog.
func (s *UserService) Permissions() []models.Permission {
	return models.AvailablePermissions()
}

func (s *UserService) activity(ctx context.Context, userID string) ([]models.ActivityLog, error) {
	logs, err := s.repo.ListActivityLogs(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity logs")
	}
	out := slices.Clone(logs)
	slices.SortStableFunc(out, func(a, b models.ActivityLog) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if out == nil {
		out = []models.ActivityLog{}
	}
	return out, nil
}

func (s *UserService) mutate(ctx context.Context, id string, actor Actor, action string, apply func(*models.User) (string, error)) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := apply(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.views.Invalidate(ctx)
	s.record(ctx, user.ID, actor, action, details)
	return user, nil
}

func (s *UserService) record(ctx context.Context, userID string, actor Actor, action, details string) {
	entry := &models.ActivityLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: actor.IP,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.CreateActivityLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("user_id", userID), zap.String("action", action), zap.Error(err))
	}
}

// normalizeCatalog upper-cases values, rejects unknown entries and drops duplicates.
func normalizeCatalog[V ~string](values []string, catalog []V, label string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, raw := range values {
		v := strings.ToUpper(strings.TrimSpace(raw))
		if !slices.Contains(catalog, V(v)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown %s %q", label, raw))
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}
