package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"fintrack/config"
	"fintrack/models"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ZakatRate 天课税率 2.5%
var ZakatRate = decimal.NewFromFloat(0.025)

// AssetSummary 按类型汇总的资产价值
type AssetSummary struct {
	Gold     float64 `json:"gold"`
	Cash     float64 `json:"cash"`
	Stocks   float64 `json:"stocks"`
	Currency float64 `json:"currency"`
	Other    float64 `json:"other"`
	Total    float64 `json:"total"`
}

// SummarizeAssets 按资产类型汇总当前价值
func SummarizeAssets(assets []models.Asset) AssetSummary {
	var gold, cash, stocks, currency, other decimal.Decimal
	for _, a := range assets {
		v := decimal.NewFromFloat(a.CurrentValue)
		typeName := ""
		if a.AssetType != nil {
			typeName = a.AssetType.Name
		}
		switch typeName {
		case models.AssetTypeGold:
			gold = gold.Add(v)
		case models.AssetTypeCash:
			cash = cash.Add(v)
		case models.AssetTypeStock:
			stocks = stocks.Add(v)
		case models.AssetTypeCurrency:
			currency = currency.Add(v)
		default:
			other = other.Add(v)
		}
	}
	total := gold.Add(cash).Add(stocks).Add(currency).Add(other)
	return AssetSummary{
		Gold:     gold.Round(2).InexactFloat64(),
		Cash:     cash.Round(2).InexactFloat64(),
		Stocks:   stocks.Round(2).InexactFloat64(),
		Currency: currency.Round(2).InexactFloat64(),
		Other:    other.Round(2).InexactFloat64(),
		Total:    total.Round(2).InexactFloat64(),
	}
}

// ZakatResult 天课计算结果
type ZakatResult struct {
	TotalAssets      float64 `json:"total_assets"`
	GoldPricePerTola float64 `json:"gold_price_per_tola"`
	NisaabTola       float64 `json:"nisaab_tola"`
	NisaabThreshold  float64 `json:"nisaab_threshold"`
	NisaabAvailable  bool    `json:"nisaab_available"`
	Eligible         bool    `json:"eligible"`
	ZakatRate        float64 `json:"zakat_rate"`
	ZakatPayable     float64 `json:"zakat_payable"`
}

// CalculateZakat 总资产严格大于 nisaab 门槛（金价 × tola 数）时按 2.5% 计算天课；
// 没有金价时无法确定门槛，天课为 0
func CalculateZakat(totalAssets, goldPricePerTola, nisaabTola float64) ZakatResult {
	res := ZakatResult{
		TotalAssets:      round2(totalAssets),
		GoldPricePerTola: round2(goldPricePerTola),
		NisaabTola:       nisaabTola,
		ZakatRate:        ZakatRate.InexactFloat64(),
	}
	if goldPricePerTola <= 0 {
		return res
	}
	res.NisaabAvailable = true

	total := decimal.NewFromFloat(totalAssets)
	threshold := decimal.NewFromFloat(goldPricePerTola).Mul(decimal.NewFromFloat(nisaabTola)).Round(2)
	res.NisaabThreshold = threshold.InexactFloat64()
	if total.GreaterThan(threshold) {
		res.Eligible = true
		res.ZakatPayable = total.Mul(ZakatRate).Round(2).InexactFloat64()
	}
	return res
}

// TaxBracket 所得税档位，Upper 为 0 表示无上限（上限包含在本档内）
type TaxBracket struct {
	Lower float64
	Upper float64
	Rate  float64
}

// TaxBrackets 年度所得税累进税率表（PKR）
var TaxBrackets = []TaxBracket{
	{Lower: 0, Upper: 600000, Rate: 0},
	{Lower: 600000, Upper: 1200000, Rate: 0.025},
	{Lower: 1200000, Upper: 2400000, Rate: 0.15},
	{Lower: 2400000, Upper: 3600000, Rate: 0.20},
	{Lower: 3600000, Upper: 6000000, Rate: 0.25},
	{Lower: 6000000, Upper: 0, Rate: 0.35},
}

// Label 档位展示文本，如 "PKR 0 – 600,000"
func (b TaxBracket) Label() string {
	if b.Upper == 0 {
		return fmt.Sprintf("PKR %s+", humanize.Comma(int64(b.Lower)))
	}
	return fmt.Sprintf("PKR %s – %s", humanize.Comma(int64(b.Lower)), humanize.Comma(int64(b.Upper)))
}

// TaxResult 所得税计算结果
type TaxResult struct {
	AnnualIncome  float64 `json:"annual_income"`
	TaxPayable    float64 `json:"tax_payable"`
	Bracket       string  `json:"bracket"`
	MarginalRate  float64 `json:"marginal_rate"`
	EffectiveRate float64 `json:"effective_rate"`
}

// CalculateIncomeTax 按累进税率表计算所得税：所在档位超出下限部分 × 档位税率 + 之前各档的累计税额
func CalculateIncomeTax(income float64) TaxResult {
	if income < 0 {
		income = 0
	}
	inc := decimal.NewFromFloat(income)
	cumulative := decimal.Zero

	for i, b := range TaxBrackets {
		lower := decimal.NewFromFloat(b.Lower)
		rate := decimal.NewFromFloat(b.Rate)
		last := i == len(TaxBrackets)-1
		if last || inc.LessThanOrEqual(decimal.NewFromFloat(b.Upper)) {
			tax := cumulative.Add(inc.Sub(lower).Mul(rate)).Round(2)
			res := TaxResult{
				AnnualIncome: inc.Round(2).InexactFloat64(),
				TaxPayable:   tax.InexactFloat64(),
				Bracket:      b.Label(),
				MarginalRate: b.Rate * 100,
			}
			if inc.IsPositive() {
				res.EffectiveRate = tax.Div(inc).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
			}
			return res
		}
		cumulative = cumulative.Add(decimal.NewFromFloat(b.Upper).Sub(lower).Mul(rate))
	}
	return TaxResult{}
}

// TaxDeadline 报税截止日期
type TaxDeadline struct {
	DueDate       time.Time `json:"due_date"`
	DaysRemaining int       `json:"days_remaining"`
	Overdue       bool      `json:"overdue"`
}

// TaxDueDate 财年结束后的第一个 7 月 31 日为报税截止日
func TaxDueDate(fiscalEnd, now time.Time) TaxDeadline {
	fiscalEnd = dateOnly(fiscalEnd)
	due := time.Date(fiscalEnd.Year(), time.July, 31, 0, 0, 0, 0, time.UTC)
	if due.Before(fiscalEnd) {
		due = due.AddDate(1, 0, 0)
	}
	days := int(math.Ceil(due.Sub(now.UTC()).Hours() / 24))
	dl := TaxDeadline{DueDate: due, DaysRemaining: days}
	if days < 0 {
		dl.DaysRemaining = 0
		dl.Overdue = true
	}
	return dl
}

// FiscalYear 财年区间 [start, end)
type FiscalYear struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ZakatTaxReport 天课与所得税报告
type ZakatTaxReport struct {
	Assets     AssetSummary `json:"assets"`
	Zakat      ZakatResult  `json:"zakat"`
	Tax        TaxResult    `json:"tax"`
	FiscalYear FiscalYear   `json:"fiscal_year"`
	Deadline   TaxDeadline  `json:"deadline"`
}

// ZakatTaxService 天课/所得税服务
type ZakatTaxService struct {
	db   *gorm.DB
	cfg  config.ZakatTaxConfig
	gold GoldPriceProvider
}

// NewZakatTaxService 创建天课/所得税服务，gold 可为 nil（只使用缓存金价）
func NewZakatTaxService(db *gorm.DB, cfg config.ZakatTaxConfig, gold GoldPriceProvider) *ZakatTaxService {
	return &ZakatTaxService{db: db, cfg: cfg, gold: gold}
}

// Report 生成用户的天课与所得税报告
func (s *ZakatTaxService) Report(ctx context.Context, userID uint, now time.Time) (*ZakatTaxReport, error) {
	start, end, err := s.cfg.FiscalWindow()
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var assets []models.Asset
	if err := db.Preload("AssetType").Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("查询资产失败: %w", err)
	}
	summary := SummarizeAssets(assets)

	price, err := ResolveGoldPricePerTola(ctx, db, s.gold)
	if err != nil {
		logrus.WithError(err).Warn("无可用金价，跳过 nisaab 判断")
		price = 0
	}

	income, err := AnnualIncome(db, userID, start, end)
	if err != nil {
		return nil, err
	}

	return &ZakatTaxReport{
		Assets:     summary,
		Zakat:      CalculateZakat(summary.Total, price, s.cfg.NisaabTola),
		Tax:        CalculateIncomeTax(income),
		FiscalYear: FiscalYear{Start: start, End: end},
		Deadline:   TaxDueDate(end, now),
	}, nil
}

// AnnualIncome 统计财年内 income 类别的收入（credit）总额
func AnnualIncome(db *gorm.DB, userID uint, start, end time.Time) (float64, error) {
	var total float64
	err := db.Model(&models.Transaction{}).
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.transaction_type = ? AND categories.name = ? AND transactions.date >= ? AND transactions.date < ?",
			userID, models.TransactionTypeCredit, models.IncomeCategoryName, start, end).
		Select("COALESCE(SUM(transactions.amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("统计年收入失败: %w", err)
	}
	return total, nil
}
