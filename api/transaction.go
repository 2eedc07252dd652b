package api

import (
	"errors"
	"strings"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler 收支记录处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建收支记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// CreateTransactionRequest 创建收支记录请求
type CreateTransactionRequest struct {
	Amount          float64 `json:"amount" binding:"required,gt=0" example:"2500"`
	TransactionType string  `json:"transaction_type" binding:"required,oneof=credit debit" example:"debit"`
	Category        string  `json:"category" binding:"required" example:"food"`
	Vendor          string  `json:"vendor" binding:"max=100" example:"Imtiaz"`
	Date            string  `json:"date" binding:"required" example:"2025-01-15"`
	Description     string  `json:"description" binding:"max=255" example:"weekly groceries"`
}

// UpdateTransactionRequest 更新收支记录请求，未传字段不修改
type UpdateTransactionRequest struct {
	Amount          *float64 `json:"amount" binding:"omitempty,gt=0" example:"2500"`
	TransactionType *string  `json:"transaction_type" binding:"omitempty,oneof=credit debit" example:"debit"`
	Category        *string  `json:"category" example:"food"`
	Vendor          *string  `json:"vendor" binding:"omitempty,max=100" example:"Imtiaz"`
	Date            *string  `json:"date" example:"2025-01-15"`
	Description     *string  `json:"description" binding:"omitempty,max=255" example:"weekly groceries"`
}

// TransactionListRequest 收支记录列表请求
type TransactionListRequest struct {
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"10"`
	Type      string `form:"type" example:"debit"`
	Category  string `form:"category" example:"food"`
	StartDate string `form:"start_date" example:"2025-01-01"`
	EndDate   string `form:"end_date" example:"2025-01-31"`
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Description 类别按名称引用，不存在时自动创建
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "收支记录"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var txn models.Transaction
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		cat, err := service.EnsureCategory(tx, req.Category)
		if err != nil {
			return err
		}
		txn = models.Transaction{
			UserID:          userID,
			Amount:          req.Amount,
			TransactionType: req.TransactionType,
			CategoryID:      cat.ID,
			Vendor:          strings.TrimSpace(req.Vendor),
			Date:            date,
			Description:     req.Description,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		txn.Category = cat
		return nil
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyCategory) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "创建收支记录失败")
		return
	}

	SuccessWithMessage(c, "创建成功", txn)
}

// List 收支记录列表
// @Summary 获取收支记录列表
// @Description 分页返回当前用户的收支记录，按日期倒序，支持类型/类别/日期筛选
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param type query string false "credit / debit"
// @Param category query string false "类别名称"
// @Param start_date query string false "开始日期 (2025-01-01)"
// @Param end_date query string false "结束日期，包含当天 (2025-01-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Router /api/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.Page, req.PageSize = pageParams(req.Page, req.PageSize)

	query := database.DB.Model(&models.Transaction{}).Where("transactions.user_id = ?", userID)

	if req.Type != "" {
		if !models.IsValidTransactionType(req.Type) {
			BadRequest(c, "无效的交易类型")
			return
		}
		query = query.Where("transactions.transaction_type = ?", req.Type)
	}
	if req.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("categories.name = ?", service.NormalizeCategoryName(req.Category))
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("transactions.date >= ?", start)
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("transactions.date < ?", end.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		ServerError(c, err, "查询失败")
		return
	}

	var list []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").
		Order("transactions.date DESC, transactions.id DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&list).Error; err != nil {
		ServerError(c, err, "查询失败")
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// findOwnTransaction 查询当前用户自己的记录，不存在时已写入 404
func findOwnTransaction(c *gin.Context, userID uint) (*models.Transaction, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var txn models.Transaction
	if err := database.DB.Preload("Category").Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		if database.IsNotFound(err) {
			NotFound(c, "记录不存在")
		} else {
			ServerError(c, err, "查询失败")
		}
		return nil, false
	}
	return &txn, true
}

// Get 获取单条收支记录
// @Summary 获取单条收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, ok := findOwnTransaction(c, middleware.GetCurrentUserID(c))
	if !ok {
		return
	}
	Success(c, txn)
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Param request body UpdateTransactionRequest true "更新内容"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	txn, ok := findOwnTransaction(c, userID)
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.TransactionType != nil {
		updates["transaction_type"] = *req.TransactionType
	}
	if req.Vendor != nil {
		updates["vendor"] = strings.TrimSpace(*req.Vendor)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updates["date"] = date
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.Category != nil {
			cat, err := service.EnsureCategory(tx, *req.Category)
			if err != nil {
				return err
			}
			updates["category_id"] = cat.ID
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(txn).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyCategory) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "更新失败")
		return
	}

	database.DB.Preload("Category").First(txn, txn.ID)
	SuccessWithMessage(c, "更新成功", txn)
}

// Delete 删除收支记录
// @Summary 删除收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	result := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		ServerError(c, result.Error, "删除失败")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "记录不存在")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
