package api

import (
	"errors"

	"fintrack/database"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CreateCategoryRequest 创建类别请求
type CreateCategoryRequest struct {
	Name        string   `json:"name" binding:"required,max=50" example:"groceries"`
	BudgetLimit *float64 `json:"budget_limit" binding:"omitempty,gt=0" example:"15000"`
}

// List 类别列表
// @Summary 获取类别列表
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category
	if err := database.DB.Order("name ASC").Find(&categories).Error; err != nil {
		ServerError(c, err, "查询类别失败")
		return
	}
	Success(c, categories)
}

// Create 创建类别（已存在时返回已有类别）
// @Summary 创建类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	cat, err := service.EnsureCategory(database.DB, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCategory) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "创建类别失败")
		return
	}

	if req.BudgetLimit != nil {
		if err := database.DB.Model(cat).Update("budget_limit", *req.BudgetLimit).Error; err != nil {
			ServerError(c, err, "更新类别预算失败")
			return
		}
		cat.BudgetLimit = req.BudgetLimit
	}

	SuccessWithMessage(c, "创建成功", cat)
}
