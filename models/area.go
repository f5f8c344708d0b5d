package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
)

// Area and AreaGroup are the delivery route lookup tables behind the
// statement header. IDs are small hand-assigned integers (max+1), not
// auto-increments, matching the numbering the business already uses on
// printed route sheets.

type AreaGroup struct {
	ID        int       `gorm:"primary_key;autoIncrement:false" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Area struct {
	ID        int       `gorm:"primary_key;autoIncrement:false" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	GroupId   int       `gorm:"index;not null" json:"group_id" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAreaGroup struct {
	Name string `json:"name" binding:"required"`
}

type NewArea struct {
	Name    string `json:"name" binding:"required"`
	GroupId int    `json:"group_id" binding:"required"`
}

func CreateAreaGroup(ctx context.Context, input *NewAreaGroup) (*AreaGroup, error) {

	if err := utils.ValidateUnique[AreaGroup](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var maxId int
	if err := db.WithContext(ctx).Model(&AreaGroup{}).Select("COALESCE(MAX(id), 0)").Scan(&maxId).Error; err != nil {
		return nil, err
	}

	group := AreaGroup{ID: maxId + 1, Name: input.Name}
	if err := db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func UpdateAreaGroup(ctx context.Context, id int, input *NewAreaGroup) (*AreaGroup, error) {

	if err := utils.ValidateUnique[AreaGroup](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}
	group, err := utils.FetchSingleModel[AreaGroup](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&group).Update("name", input.Name).Error
	if err != nil {
		return nil, err
	}
	return group, nil
}

func DeleteAreaGroup(ctx context.Context, id int) (*AreaGroup, error) {

	group, err := utils.FetchSingleModel[AreaGroup](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't delete groups still holding areas
	count, err := utils.ResourceCountWhere[Area](ctx, "group_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("area group has areas")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&group).Error
	if err != nil {
		return nil, err
	}
	return group, nil
}

func ListAreaGroups(ctx context.Context) ([]*AreaGroup, error) {
	return utils.FetchAllModels[AreaGroup](ctx)
}

func CreateArea(ctx context.Context, input *NewArea) (*Area, error) {

	if err := utils.ValidateUnique[Area](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[AreaGroup](ctx, input.GroupId); err != nil {
		return nil, errors.New("area group not found")
	}

	db := config.GetDB()
	var maxId int
	if err := db.WithContext(ctx).Model(&Area{}).Select("COALESCE(MAX(id), 0)").Scan(&maxId).Error; err != nil {
		return nil, err
	}

	area := Area{ID: maxId + 1, Name: input.Name, GroupId: input.GroupId}
	if err := db.WithContext(ctx).Create(&area).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func UpdateArea(ctx context.Context, id int, input *NewArea) (*Area, error) {

	if err := utils.ValidateUnique[Area](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[AreaGroup](ctx, input.GroupId); err != nil {
		return nil, errors.New("area group not found")
	}
	area, err := utils.FetchSingleModel[Area](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&area).Updates(map[string]interface{}{
		"Name":    input.Name,
		"GroupId": input.GroupId,
	}).Error
	if err != nil {
		return nil, err
	}
	return area, nil
}

func DeleteArea(ctx context.Context, id int) (*Area, error) {

	area, err := utils.FetchSingleModel[Area](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't delete areas still assigned to customers
	count, err := utils.ResourceCountWhere[Customer](ctx, "area_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("area has customers")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&area).Error
	if err != nil {
		return nil, err
	}
	return area, nil
}

func ListAreas(ctx context.Context) ([]*Area, error) {
	return utils.FetchAllModels[Area](ctx)
}
