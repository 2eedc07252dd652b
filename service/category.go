package service

import (
	"errors"
	"fmt"
	"strings"

	"fintrack/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NormalizeCategoryName 类别名称统一去空格并转小写
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EnsureCategory 按名称获取类别，不存在时创建。
// 并发创建同名类别时依赖唯一索引，冲突方重新读取已有记录，保证每个名称只有一行。
func EnsureCategory(db *gorm.DB, name string) (*models.Category, error) {
	name = NormalizeCategoryName(name)
	if name == "" {
		return nil, ErrEmptyCategory
	}

	var cat models.Category
	err := db.Where("name = ?", name).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}

	cat = models.Category{Name: name}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("创建类别失败: %w", err)
	}
	if cat.ID != 0 {
		return &cat, nil
	}

	if err := db.Where("name = ?", name).First(&cat).Error; err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return &cat, nil
}
