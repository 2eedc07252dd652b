package service

import (
	"fmt"
	"strings"
	"time"

	"fintrack/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxOccurrences 单个周期付款从今天起最多展开的次数（每日付款一年约 366 次）
const maxOccurrences = 1000

// ParseFrequency 规范化并校验付款周期
func ParseFrequency(freq string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(freq))
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
}

// addMonthsClamped 按月偏移，目标月没有对应日期时取当月最后一天（1 月 31 日 + 1 月 = 2 月 28/29 日）
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Occurrence 第 n 次发生日期（n=0 为 anchor 本身），始终从 anchor 计算，避免月末截断累积漂移
func Occurrence(anchor time.Time, freq string, n int) time.Time {
	anchor = dateOnly(anchor)
	switch freq {
	case models.FrequencyDaily:
		return anchor.AddDate(0, 0, n)
	case models.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case models.FrequencyMonthly:
		return addMonthsClamped(anchor, n)
	default:
		return addMonthsClamped(anchor, 12*n)
	}
}

// firstIndexOnOrAfter 第一个不早于 day 的发生序号
func firstIndexOnOrAfter(anchor time.Time, freq string, day time.Time) int {
	anchor, day = dateOnly(anchor), dateOnly(day)
	if !anchor.Before(day) {
		return 0
	}
	days := int(day.Sub(anchor).Hours() / 24)
	months := (day.Year()-anchor.Year())*12 + int(day.Month()-anchor.Month())
	var n int
	switch freq {
	case models.FrequencyDaily:
		return days
	case models.FrequencyWeekly:
		return (days + 6) / 7
	case models.FrequencyMonthly:
		n = months - 1
	default:
		n = months/12 - 1
	}
	if n < 0 {
		n = 0
	}
	for Occurrence(anchor, freq, n).Before(day) {
		n++
	}
	return n
}

// ProjectOccurrences 从首个到期日（含）开始展开，直到超过 now + 1 年。
// 上限只计今天及以后的发生次数，过去的到期日不占额度
func ProjectOccurrences(start time.Time, freq string, now time.Time) ([]time.Time, error) {
	f, err := ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	horizon := dateOnly(now).AddDate(1, 0, 0)
	limit := firstIndexOnOrAfter(start, f, now) + maxOccurrences
	var out []time.Time
	for n := 0; n < limit; n++ {
		d := Occurrence(start, f, n)
		if d.After(horizon) {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// BuildRecurringEvents 生成周期付款的日历事件：每次发生一条，外加到期前一天的提醒。
// after 非空时只保留日期晚于 after 的事件
func BuildRecurringEvents(p *models.RecurringPayment, now time.Time, after *time.Time) ([]models.CalendarEvent, error) {
	dates, err := ProjectOccurrences(p.NextDueDate, p.Frequency, now)
	if err != nil {
		return nil, err
	}

	keep := func(d time.Time) bool { return after == nil || d.After(*after) }
	amount := p.Amount
	id := p.ID
	events := make([]models.CalendarEvent, 0, len(dates)+1)

	reminder := dateOnly(p.NextDueDate).AddDate(0, 0, -1)
	if keep(reminder) {
		events = append(events, models.CalendarEvent{
			UserID:             p.UserID,
			EventTitle:         fmt.Sprintf("%s 明天到期", p.PaymentName),
			EventDate:          reminder,
			EventType:          models.EventTypeRecurringDue,
			Description:        fmt.Sprintf("%s 付款提醒，金额 %.2f", p.PaymentName, p.Amount),
			Amount:             &amount,
			RecurringPaymentID: &id,
		})
	}
	for _, d := range dates {
		if !keep(d) {
			continue
		}
		events = append(events, models.CalendarEvent{
			UserID:             p.UserID,
			EventTitle:         p.PaymentName,
			EventDate:          d,
			EventType:          models.EventTypeRecurringPayment,
			Description:        fmt.Sprintf("%s（%s）付款 %.2f", p.PaymentName, p.Frequency, p.Amount),
			Amount:             &amount,
			RecurringPaymentID: &id,
		})
	}
	return events, nil
}

func insertEvents(tx *gorm.DB, events []models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(&events, 200).Error; err != nil {
		return fmt.Errorf("生成日历事件失败: %w", err)
	}
	return nil
}

// deleteFutureEvents 删除周期付款关联的未来事件（日期晚于 now），过去的事件保留
func deleteFutureEvents(tx *gorm.DB, paymentID uint, now time.Time) (int64, error) {
	res := tx.Where("recurring_payment_id = ? AND event_date > ?", paymentID, now).Delete(&models.CalendarEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除日历事件失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateRecurringPayment 创建周期付款并生成日历事件，全部在一个事务内完成
func CreateRecurringPayment(db *gorm.DB, p *models.RecurringPayment, now time.Time) (int, error) {
	f, err := ParseFrequency(p.Frequency)
	if err != nil {
		return 0, err
	}
	p.Frequency = f
	p.PaymentName = strings.TrimSpace(p.PaymentName)
	if p.PaymentName == "" {
		return 0, ErrEmptyPaymentName
	}
	p.NextDueDate = dateOnly(p.NextDueDate)

	created := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("创建周期付款失败: %w", err)
		}
		events, err := BuildRecurringEvents(p, now, nil)
		if err != nil {
			return err
		}
		created = len(events)
		return insertEvents(tx, events)
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// RecurringPaymentUpdate 周期付款可修改字段，nil 表示不修改
type RecurringPaymentUpdate struct {
	Amount      *float64
	PaymentName *string
	Frequency   *string
	NextDueDate *time.Time
}

// UpdateRecurringPayment 修改周期付款，并重新生成未来的日历事件
func UpdateRecurringPayment(db *gorm.DB, p *models.RecurringPayment, upd RecurringPaymentUpdate, now time.Time) (int, error) {
	next := *p
	if upd.Amount != nil {
		next.Amount = *upd.Amount
	}
	if upd.PaymentName != nil {
		next.PaymentName = strings.TrimSpace(*upd.PaymentName)
		if next.PaymentName == "" {
			return 0, ErrEmptyPaymentName
		}
	}
	if upd.Frequency != nil {
		f, err := ParseFrequency(*upd.Frequency)
		if err != nil {
			return 0, err
		}
		next.Frequency = f
	}
	if upd.NextDueDate != nil {
		next.NextDueDate = dateOnly(*upd.NextDueDate)
	}

	events, err := BuildRecurringEvents(&next, now, &now)
	if err != nil {
		return 0, err
	}

	// 先删未来事件，再改付款，最后按新参数重新生成
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := deleteFutureEvents(tx, p.ID, now); err != nil {
			return err
		}
		if err := tx.Model(&models.RecurringPayment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"amount":        next.Amount,
			"payment_name":  next.PaymentName,
			"frequency":     next.Frequency,
			"next_due_date": next.NextDueDate,
		}).Error; err != nil {
			return fmt.Errorf("更新周期付款失败: %w", err)
		}
		return insertEvents(tx, events)
	})
	if err != nil {
		return 0, err
	}
	*p = next
	return len(events), nil
}

func regenerateEvents(tx *gorm.DB, p *models.RecurringPayment, now time.Time) (int, error) {
	if _, err := deleteFutureEvents(tx, p.ID, now); err != nil {
		return 0, err
	}
	events, err := BuildRecurringEvents(p, now, &now)
	if err != nil {
		return 0, err
	}
	return len(events), insertEvents(tx, events)
}

// DeleteRecurringPayment 删除周期付款及其未来事件，返回删除的事件数
func DeleteRecurringPayment(db *gorm.DB, p *models.RecurringPayment, now time.Time) (int64, error) {
	var removed int64
	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := deleteFutureEvents(tx, p.ID, now)
		if err != nil {
			return err
		}
		removed = n
		if err := tx.Delete(p).Error; err != nil {
			return fmt.Errorf("删除周期付款失败: %w", err)
		}
		return nil
	})
	return removed, err
}

// NextDueOnOrAfter 不早于 day 的第一次发生日期
func NextDueOnOrAfter(anchor time.Time, freq string, day time.Time) time.Time {
	return Occurrence(anchor, freq, firstIndexOnOrAfter(anchor, freq, day))
}

// RollForwardRecurringPayments 将已过期的 next_due_date 推进到今天或之后，并补齐未来一年的事件
func RollForwardRecurringPayments(db *gorm.DB, now time.Time) (int, error) {
	today := dateOnly(now)
	var lapsed []models.RecurringPayment
	if err := db.Where("next_due_date < ?", today).Find(&lapsed).Error; err != nil {
		return 0, fmt.Errorf("查询周期付款失败: %w", err)
	}

	rolled := 0
	for i := range lapsed {
		p := lapsed[i]
		if _, err := ParseFrequency(p.Frequency); err != nil {
			logrus.WithField("recurring_payment_id", p.ID).Warn("周期付款频率无效，跳过")
			continue
		}
		next := NextDueOnOrAfter(p.NextDueDate, p.Frequency, today)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.RecurringPayment{}).Where("id = ?", p.ID).
				Update("next_due_date", next).Error; err != nil {
				return err
			}
			p.NextDueDate = next
			_, err := regenerateEvents(tx, &p, now)
			return err
		})
		if err != nil {
			logrus.WithError(err).WithField("recurring_payment_id", p.ID).Error("周期付款顺延失败")
			continue
		}
		rolled++
	}
	return rolled, nil
}
