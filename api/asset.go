package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// AssetHandler 资产处理器
type AssetHandler struct {
	refresher *service.AssetRefresher
	stocks    service.StockPriceProvider
	search    service.TickerSearcher
	currency  service.CurrencyRateProvider
	now       func() time.Time
}

// NewAssetHandler 创建资产处理器
func NewAssetHandler(refresher *service.AssetRefresher, stocks service.StockPriceProvider, search service.TickerSearcher, currency service.CurrencyRateProvider) *AssetHandler {
	return &AssetHandler{
		refresher: refresher,
		stocks:    stocks,
		search:    search,
		currency:  currency,
		now:       time.Now,
	}
}

// AssetRequest 创建/更新资产请求
type AssetRequest struct {
	AssetType     string              `json:"asset_type" binding:"required,oneof=gold cash stock currency" example:"gold"`
	Quantity      float64             `json:"quantity" binding:"gte=0" example:"2.5"`
	PurchaseValue float64             `json:"purchase_value" binding:"gte=0" example:"550000"`
	CurrentValue  *float64            `json:"current_value" binding:"omitempty,gte=0" example:"600000"`
	AcquiredOn    string              `json:"acquired_on" example:"2024-08-01"`
	AssetDetails  models.AssetDetails `json:"asset_details"`
}

func (r *AssetRequest) apply(a *models.Asset) error {
	a.Quantity = r.Quantity
	a.PurchaseValue = r.PurchaseValue
	// 未指定当前价值时以买入价值作为初始估值
	if r.CurrentValue != nil {
		a.CurrentValue = *r.CurrentValue
	} else if a.ID == 0 {
		a.CurrentValue = r.PurchaseValue
	}
	a.AcquiredOn = nil
	if r.AcquiredOn != "" {
		d, err := parseDate(r.AcquiredOn)
		if err != nil {
			return err
		}
		a.AcquiredOn = &d
	}
	details := r.AssetDetails
	details.Ticker = strings.ToUpper(strings.TrimSpace(details.Ticker))
	details.Currency = strings.ToUpper(strings.TrimSpace(details.Currency))
	details.Unit = strings.ToLower(strings.TrimSpace(details.Unit))
	a.AssetDetails = details
	return nil
}

func validateAssetDetails(assetType string, d models.AssetDetails) error {
	switch assetType {
	case models.AssetTypeStock:
		if strings.TrimSpace(d.Ticker) == "" {
			return errors.New("股票资产需要提供 asset_details.ticker")
		}
	case models.AssetTypeGold:
		switch strings.ToLower(strings.TrimSpace(d.Unit)) {
		case "", "tola", "gram", "grams", "g", "ounce", "oz":
		default:
			return errors.New("黄金单位仅支持 tola / gram / ounce")
		}
	}
	return nil
}

func findAssetType(name string) (*models.AssetType, error) {
	var at models.AssetType
	if err := database.DB.Where("name = ?", name).First(&at).Error; err != nil {
		return nil, err
	}
	return &at, nil
}

// Create 创建资产
// @Summary 创建资产
// @Tags 资产
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AssetRequest true "资产信息"
// @Success 200 {object} Response{data=models.Asset} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := validateAssetDetails(req.AssetType, req.AssetDetails); err != nil {
		BadRequest(c, err.Error())
		return
	}
	at, err := findAssetType(req.AssetType)
	if err != nil {
		if database.IsNotFound(err) {
			BadRequest(c, "无效的资产类型")
			return
		}
		ServerError(c, err, "创建资产失败")
		return
	}

	asset := models.Asset{UserID: userID, AssetTypeID: at.ID}
	if err := req.apply(&asset); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := database.DB.Create(&asset).Error; err != nil {
		ServerError(c, err, "创建资产失败")
		return
	}
	asset.AssetType = at

	SuccessWithMessage(c, "创建成功", asset)
}

// List 资产列表
// @Summary 获取资产列表
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param type query string false "资产类型"
// @Success 200 {object} Response{data=[]models.Asset} "获取成功"
// @Router /api/assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Preload("AssetType").Where("assets.user_id = ?", userID)
	if t := c.Query("type"); t != "" {
		query = query.Joins("JOIN asset_types ON asset_types.id = assets.asset_type_id").
			Where("asset_types.name = ?", strings.ToLower(t))
	}

	var assets []models.Asset
	if err := query.Order("assets.id DESC").Find(&assets).Error; err != nil {
		ServerError(c, err, "查询资产失败")
		return
	}
	Success(c, assets)
}

func findOwnAsset(c *gin.Context, userID uint) (*models.Asset, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var asset models.Asset
	if err := database.DB.Preload("AssetType").Where("id = ? AND user_id = ?", id, userID).First(&asset).Error; err != nil {
		if database.IsNotFound(err) {
			NotFound(c, "资产不存在")
		} else {
			ServerError(c, err, "查询资产失败")
		}
		return nil, false
	}
	return &asset, true
}

// Get 获取资产
// @Summary 获取资产详情
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param id path int true "资产ID"
// @Success 200 {object} Response{data=models.Asset} "获取成功"
// @Failure 404 {object} Response "资产不存在"
// @Router /api/assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	asset, ok := findOwnAsset(c, middleware.GetCurrentUserID(c))
	if !ok {
		return
	}
	Success(c, asset)
}

// Update 更新资产
// @Summary 更新资产
// @Tags 资产
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "资产ID"
// @Param request body AssetRequest true "资产信息"
// @Success 200 {object} Response{data=models.Asset} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "资产不存在"
// @Router /api/assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	asset, ok := findOwnAsset(c, userID)
	if !ok {
		return
	}

	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := validateAssetDetails(req.AssetType, req.AssetDetails); err != nil {
		BadRequest(c, err.Error())
		return
	}
	at, err := findAssetType(req.AssetType)
	if err != nil {
		if database.IsNotFound(err) {
			BadRequest(c, "无效的资产类型")
			return
		}
		ServerError(c, err, "更新资产失败")
		return
	}

	asset.AssetTypeID = at.ID
	if err := req.apply(asset); err != nil {
		BadRequest(c, err.Error())
		return
	}
	asset.AssetType = nil
	if err := database.DB.Save(asset).Error; err != nil {
		ServerError(c, err, "更新资产失败")
		return
	}
	asset.AssetType = at

	SuccessWithMessage(c, "更新成功", asset)
}

// Delete 删除资产
// @Summary 删除资产
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param id path int true "资产ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "资产不存在"
// @Router /api/assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	result := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Asset{})
	if result.Error != nil {
		ServerError(c, result.Error, "删除失败")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "资产不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Summary 资产汇总
// @Summary 资产汇总
// @Description 按资产类型汇总当前价值
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.AssetSummary} "获取成功"
// @Router /api/assets/summary [get]
func (h *AssetHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var assets []models.Asset
	if err := database.DB.Preload("AssetType").Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		ServerError(c, err, "查询资产失败")
		return
	}
	Success(c, service.SummarizeAssets(assets))
}

// Refresh 刷新资产估值
// @Summary 刷新资产估值
// @Description 按最新金价与股票收盘价重新估值，单个资产失败不影响其他资产
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.RefreshSummary} "刷新完成"
// @Router /api/assets/refresh [post]
func (h *AssetHandler) Refresh(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	summary, err := h.refresher.RefreshUser(c.Request.Context(), userID)
	if err != nil {
		ServerError(c, err, "刷新失败")
		return
	}
	SuccessWithMessage(c, "刷新完成", summary)
}

// GoldHistory 金价历史
// @Summary 金价历史
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param days query int false "天数，默认 30，最多 365"
// @Success 200 {object} Response{data=[]models.GoldPriceHistory} "获取成功"
// @Router /api/assets/history/gold [get]
func (h *AssetHandler) GoldHistory(c *gin.Context) {
	days := intQuery(c, "days", 30, 365)
	rows, err := service.GoldPriceHistory(database.DB, h.now().AddDate(0, 0, -days))
	if err != nil {
		ServerError(c, err, "查询金价历史失败")
		return
	}
	Success(c, rows)
}

// StockHistory 股票日线历史
// @Summary 股票日线历史
// @Description 实时拉取区间日线并写入缓存，行情接口不可用时返回缓存数据
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param ticker path string true "股票代码"
// @Param days query int false "天数，默认 30，最多 365"
// @Success 200 {object} Response{data=[]models.StockPriceHistory} "获取成功"
// @Router /api/assets/history/stock/{ticker} [get]
func (h *AssetHandler) StockHistory(c *gin.Context) {
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		BadRequest(c, "缺少股票代码")
		return
	}
	days := intQuery(c, "days", 30, 365)
	now := h.now()

	rows, err := service.StockHistory(c.Request.Context(), database.DB, h.stocks, ticker, now.AddDate(0, 0, -days), now)
	if err != nil {
		ServerError(c, err, "查询股票行情失败")
		return
	}
	Success(c, rows)
}

// SearchTickers 股票代码检索
// @Summary 股票代码检索
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param q query string true "关键字"
// @Param limit query int false "返回条数，默认 10"
// @Success 200 {object} Response{data=[]service.TickerInfo} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/assets/search [get]
func (h *AssetHandler) SearchTickers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		BadRequest(c, "请提供检索关键字")
		return
	}
	results, err := h.search.SearchTickers(c.Request.Context(), q, intQuery(c, "limit", 10, 50))
	if err != nil {
		ServerError(c, err, "行情服务暂不可用")
		return
	}
	Success(c, results)
}

// Convert 货币换算
// @Summary 货币换算
// @Tags 资产
// @Produce json
// @Security BearerAuth
// @Param from query string true "源货币 (USD)"
// @Param to query string true "目标货币 (PKR)"
// @Param amount query number true "金额"
// @Success 200 {object} Response{data=service.Conversion} "换算成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/assets/convert [get]
func (h *AssetHandler) Convert(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if len(strings.TrimSpace(from)) != 3 || len(strings.TrimSpace(to)) != 3 {
		BadRequest(c, "货币代码应为 3 位字母")
		return
	}
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount < 0 {
		BadRequest(c, "无效的金额")
		return
	}

	conv, err := service.ConvertCurrency(c.Request.Context(), database.DB, h.currency, from, to, amount, h.now())
	if err != nil {
		ServerError(c, err, "汇率服务暂不可用")
		return
	}
	Success(c, conv)
}
