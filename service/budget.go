package service

import (
	"fmt"
	"sort"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetLimitInput 单个类别的预算设置
type BudgetLimitInput struct {
	Category string  `json:"category" binding:"required"`
	Limit    float64 `json:"limit"`
}

// BudgetStatus 预算执行情况
type BudgetStatus struct {
	ID          uint      `json:"id"`
	CategoryID  uint      `json:"category_id"`
	Category    string    `json:"category"`
	MonthStart  time.Time `json:"month_start"`
	Month       string    `json:"month"`
	BudgetLimit float64   `json:"budget_limit"`
	Spent       float64   `json:"spent"`
	Remaining   float64   `json:"remaining"`
	PercentUsed float64   `json:"percent_used"`
	Alert       bool      `json:"alert"`
}

// SpendRow 参与预算统计的支出
type SpendRow struct {
	CategoryID uint
	Amount     float64
	Date       time.Time
}

type spendKey struct {
	CategoryID uint
	Month      time.Time
}

// ValidateBudgetInputs 校验全部预算项，任何一项不合法都不写入
func ValidateBudgetInputs(items []BudgetLimitInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: 至少需要一个类别", ErrInvalidBudget)
	}
	for i, it := range items {
		if NormalizeCategoryName(it.Category) == "" {
			return fmt.Errorf("%w: 第 %d 项类别不能为空", ErrInvalidBudget, i+1)
		}
		if it.Limit <= 0 {
			return fmt.Errorf("%w: 第 %d 项预算必须大于 0", ErrInvalidBudget, i+1)
		}
	}
	return nil
}

// SumSpending 按 (类别, 月份) 汇总支出
func SumSpending(rows []SpendRow) map[spendKey]decimal.Decimal {
	sums := make(map[spendKey]decimal.Decimal)
	for _, r := range rows {
		k := spendKey{CategoryID: r.CategoryID, Month: models.MonthStartOf(r.Date)}
		sums[k] = sums[k].Add(decimal.NewFromFloat(r.Amount))
	}
	return sums
}

// BuildBudgetStatuses 计算每条预算的已用、剩余与超支告警（已用严格大于预算才告警）
func BuildBudgetStatuses(budgets []models.Budget, spent map[spendKey]decimal.Decimal) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		month := models.MonthStartOf(b.MonthStart)
		used := spent[spendKey{CategoryID: b.CategoryID, Month: month}]
		limit := decimal.NewFromFloat(b.BudgetLimit)

		st := BudgetStatus{
			ID:          b.ID,
			CategoryID:  b.CategoryID,
			MonthStart:  month,
			Month:       month.Format("2006-01"),
			BudgetLimit: b.BudgetLimit,
			Spent:       used.Round(2).InexactFloat64(),
			Remaining:   limit.Sub(used).Round(2).InexactFloat64(),
			Alert:       used.GreaterThan(limit),
		}
		if b.Category != nil {
			st.Category = b.Category.Name
		}
		if limit.IsPositive() {
			st.PercentUsed = used.Div(limit).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		out = append(out, st)
	}
	return out
}

// ListBudgetStatuses 查询用户预算及执行情况，month 为空时返回全部月份
func ListBudgetStatuses(db *gorm.DB, userID uint, month *time.Time) ([]BudgetStatus, error) {
	var budgets []models.Budget
	q := db.Preload("Category").Where("user_id = ?", userID)
	if month != nil {
		q = q.Where("month_start = ?", models.MonthStartOf(*month))
	}
	if err := q.Order("month_start DESC, id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("查询预算失败: %w", err)
	}
	if len(budgets) == 0 {
		return []BudgetStatus{}, nil
	}

	from, to := budgets[0].MonthStart, budgets[0].MonthStart
	catSet := make(map[uint]struct{})
	for _, b := range budgets {
		if b.MonthStart.Before(from) {
			from = b.MonthStart
		}
		if b.MonthStart.After(to) {
			to = b.MonthStart
		}
		catSet[b.CategoryID] = struct{}{}
	}
	catIDs := make([]uint, 0, len(catSet))
	for id := range catSet {
		catIDs = append(catIDs, id)
	}
	sort.Slice(catIDs, func(i, j int) bool { return catIDs[i] < catIDs[j] })

	var rows []SpendRow
	if err := db.Model(&models.Transaction{}).
		Select("category_id, amount, date").
		Where("user_id = ? AND transaction_type = ? AND category_id IN ? AND date >= ? AND date < ?",
			userID, models.TransactionTypeDebit, catIDs,
			models.MonthStartOf(from), models.MonthStartOf(to).AddDate(0, 1, 0)).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("统计支出失败: %w", err)
	}

	return BuildBudgetStatuses(budgets, SumSpending(rows)), nil
}

// SetBudgets 批量设置某月预算：先全部校验，再在一个事务内逐项 upsert
func SetBudgets(db *gorm.DB, userID uint, month time.Time, items []BudgetLimitInput) ([]models.Budget, error) {
	if err := ValidateBudgetInputs(items); err != nil {
		return nil, err
	}
	monthStart := models.MonthStartOf(month)

	saved := make([]models.Budget, 0, len(items))
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			cat, err := EnsureCategory(tx, it.Category)
			if err != nil {
				return err
			}
			b := models.Budget{
				UserID:      userID,
				CategoryID:  cat.ID,
				MonthStart:  monthStart,
				BudgetLimit: round2(it.Limit),
				Category:    cat,
			}
			if err := tx.Omit("Category").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}, {Name: "month_start"}},
				DoUpdates: clause.AssignmentColumns([]string{"budget_limit", "updated_at"}),
			}).Create(&b).Error; err != nil {
				return fmt.Errorf("保存预算失败: %w", err)
			}
			saved = append(saved, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteBudget 删除用户自己的预算
func DeleteBudget(db *gorm.DB, userID, budgetID uint) (bool, error) {
	result := db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return false, fmt.Errorf("删除预算失败: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
