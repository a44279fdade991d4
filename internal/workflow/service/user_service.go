package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// UserService owns the team directory backing assignment and role checks.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser registers a team member. The manager chain is walked to reject
// a reporting cycle before the row is written.
func (s *UserService) CreateUser(ctx context.Context, req *model.CreateUserDTO) (*model.User, error) {
	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		Whatsapp: req.Whatsapp,
		Avatar:   req.Avatar,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ManagerID != nil {
			managerID, err := uuid.Parse(*req.ManagerID)
			if err != nil {
				return &model.ValidationError{Field: "managerId", Reason: "not a valid user ID"}
			}
			if err := s.checkManagerChain(tx, managerID); err != nil {
				return err
			}
			user.ManagerID = &managerID
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves one user.
func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.InvalidReferenceError{Kind: "user", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ListUsers returns users in creation order.
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// checkManagerChain verifies the manager exists and the chain above it
// terminates. Walking up can visit at most the number of users in the table,
// so a revisited ID means a cycle.
func (s *UserService) checkManagerChain(tx *gorm.DB, managerID uuid.UUID) error {
	visited := map[uuid.UUID]bool{}
	current := managerID
	for {
		if visited[current] {
			return &model.ValidationError{Field: "managerId", Reason: "manager chain forms a cycle"}
		}
		visited[current] = true

		var manager model.User
		if err := tx.First(&manager, "id = ?", current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "user", ID: current.String()}
			}
			return fmt.Errorf("failed to query manager: %w", err)
		}
		if manager.ManagerID == nil {
			return nil
		}
		current = *manager.ManagerID
	}
}
