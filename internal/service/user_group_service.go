package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type CreateUserGroupRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Handle      string `json:"handle" binding:"required,max=255"`
	Description string `json:"description"`
}

type SetGroupMembersRequest struct {
	UserIDs []uint `json:"user_ids"`
}

type UserGroupResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
	UserIDs     []uint `json:"user_ids"`
}

type UserGroupService interface {
	ListGroups(ctx context.Context) ([]UserGroupResponse, error)
	CreateGroup(ctx context.Context, req CreateUserGroupRequest) (UserGroupResponse, error)
	DeleteGroup(ctx context.Context, id uint) error
	SetMembers(ctx context.Context, id uint, req SetGroupMembersRequest) (UserGroupResponse, error)
}

type userGroupService struct {
	groupRepo repository.UserGroupRepository
	userRepo  repository.UserRepository
	txManager repository.TransactionManager
}

func NewUserGroupService(groupRepo repository.UserGroupRepository, userRepo repository.UserRepository, txManager repository.TransactionManager) UserGroupService {
	return &userGroupService{groupRepo: groupRepo, userRepo: userRepo, txManager: txManager}
}

func (s *userGroupService) ListGroups(ctx context.Context) ([]UserGroupResponse, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}

	res := make([]UserGroupResponse, 0, len(groups))
	for _, g := range groups {
		ids, err := s.groupRepo.MemberIDs(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of group %d: %w", g.ID, err)
		}
		res = append(res, toUserGroupResponse(g, ids))
	}
	return res, nil
}

func (s *userGroupService) CreateGroup(ctx context.Context, req CreateUserGroupRequest) (UserGroupResponse, error) {
	group := model.UserGroup{Name: req.Name, Handle: req.Handle, Description: req.Description}
	if err := s.groupRepo.Create(ctx, &group); err != nil {
		return UserGroupResponse{}, fmt.Errorf("failed to create user group: %w", err)
	}
	return toUserGroupResponse(group, nil), nil
}

func (s *userGroupService) DeleteGroup(ctx context.Context, id uint) error {
	if _, err := s.findGroup(ctx, id); err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.groupRepo.Delete(txCtx, id)
	})
}

// SetMembers replaces the membership of a group; unknown users are rejected
func (s *userGroupService) SetMembers(ctx context.Context, id uint, req SetGroupMembersRequest) (UserGroupResponse, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return UserGroupResponse{}, err
	}

	ids := uniqueIDs(req.UserIDs)
	if len(ids) > 0 {
		count, err := s.userRepo.CountByIDs(ctx, ids)
		if err != nil {
			return UserGroupResponse{}, fmt.Errorf("failed to check users: %w", err)
		}
		if count != int64(len(ids)) {
			return UserGroupResponse{}, fmt.Errorf("%w: one or more users do not exist", ErrInvalidInput)
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.groupRepo.SetMembers(txCtx, id, ids)
	})
	if err != nil {
		return UserGroupResponse{}, fmt.Errorf("failed to set group members: %w", err)
	}

	return toUserGroupResponse(*group, ids), nil
}

func (s *userGroupService) findGroup(ctx context.Context, id uint) (*model.UserGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user group %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch user group: %w", err)
	}
	return group, nil
}

func toUserGroupResponse(g model.UserGroup, userIDs []uint) UserGroupResponse {
	if userIDs == nil {
		userIDs = []uint{}
	}
	return UserGroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Handle:      g.Handle,
		Description: g.Description,
		UserIDs:     userIDs,
	}
}

// uniqueIDs drops duplicates and keeps first-seen order
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
