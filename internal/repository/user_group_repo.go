package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type UserGroupRepository interface {
	Create(ctx context.Context, group *model.UserGroup) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.UserGroup, error)
	List(ctx context.Context) ([]model.UserGroup, error)
	SetMembers(ctx context.Context, groupID uint, userIDs []uint) error
	MemberIDs(ctx context.Context, groupID uint) ([]uint, error)
	ListMemberships(ctx context.Context) ([]model.UserGroupMember, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
}

type userGroupRepository struct {
	db *gorm.DB
}

func NewUserGroupRepository(db *gorm.DB) UserGroupRepository {
	return &userGroupRepository{db: db}
}

func (r *userGroupRepository) Create(ctx context.Context, group *model.UserGroup) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *userGroupRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("user_group_id = ?", id).Delete(&model.UserGroupMember{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.UserGroup{}).Error
}

func (r *userGroupRepository) FindByID(ctx context.Context, id uint) (*model.UserGroup, error) {
	var group model.UserGroup
	if err := GetDB(ctx, r.db).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *userGroupRepository) List(ctx context.Context) ([]model.UserGroup, error) {
	var groups []model.UserGroup
	if err := GetDB(ctx, r.db).Order("name asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// SetMembers replaces the group's membership with userIDs
func (r *userGroupRepository) SetMembers(ctx context.Context, groupID uint, userIDs []uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("user_group_id = ?", groupID).Delete(&model.UserGroupMember{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	seen := make(map[uint]bool, len(userIDs))
	members := make([]model.UserGroupMember, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, model.UserGroupMember{UserGroupID: groupID, UserID: id})
	}
	return db.Create(&members).Error
}

func (r *userGroupRepository) MemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	err := GetDB(ctx, r.db).Model(&model.UserGroupMember{}).
		Where("user_group_id = ?", groupID).
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListMemberships loads the complete membership relation
func (r *userGroupRepository) ListMemberships(ctx context.Context) ([]model.UserGroupMember, error) {
	var members []model.UserGroupMember
	if err := GetDB(ctx, r.db).Order("user_group_id asc, user_id asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *userGroupRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UserGroup{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
