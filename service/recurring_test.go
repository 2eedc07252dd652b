package service

import (
	"testing"
	"time"

	"fintrack/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Monthly ")
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyMonthly, f)

	_, err = ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestOccurrence_MonthEndClamp(t *testing.T) {
	anchor := day(2025, 1, 31)
	assert.Equal(t, day(2025, 2, 28), Occurrence(anchor, models.FrequencyMonthly, 1))
	assert.Equal(t, day(2025, 3, 31), Occurrence(anchor, models.FrequencyMonthly, 2))
	assert.Equal(t, day(2025, 4, 30), Occurrence(anchor, models.FrequencyMonthly, 3))
	assert.Equal(t, day(2024, 2, 29), Occurrence(day(2024, 1, 31), models.FrequencyMonthly, 1))

	leap := day(2024, 2, 29)
	assert.Equal(t, day(2025, 2, 28), Occurrence(leap, models.FrequencyYearly, 1))
	assert.Equal(t, day(2028, 2, 29), Occurrence(leap, models.FrequencyYearly, 4))
}

func TestProjectOccurrences(t *testing.T) {
	weekly, err := ProjectOccurrences(day(2025, 1, 15), models.FrequencyWeekly, day(2025, 1, 10))
	require.NoError(t, err)
	require.Len(t, weekly, 52)
	assert.Equal(t, day(2025, 1, 15), weekly[0])
	assert.Equal(t, day(2025, 1, 22), weekly[1])
	assert.Equal(t, day(2026, 1, 7), weekly[51])

	monthly, err := ProjectOccurrences(day(2025, 1, 31), models.FrequencyMonthly, day(2025, 1, 1))
	require.NoError(t, err)
	require.Len(t, monthly, 12)
	assert.Equal(t, day(2025, 2, 28), monthly[1])
	assert.Equal(t, day(2025, 12, 31), monthly[11])

	daily, err := ProjectOccurrences(day(2025, 1, 1), models.FrequencyDaily, day(2025, 1, 1))
	require.NoError(t, err)
	assert.Len(t, daily, 366)

	none, err := ProjectOccurrences(day(2030, 1, 1), models.FrequencyYearly, day(2025, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = ProjectOccurrences(day(2025, 1, 1), "hourly", day(2025, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestBuildRecurringEvents(t *testing.T) {
	p := &models.RecurringPayment{
		ID:          5,
		UserID:      1,
		Amount:      1200,
		PaymentName: "Rent",
		Frequency:   models.FrequencyWeekly,
		NextDueDate: day(2025, 1, 15),
	}
	events, err := BuildRecurringEvents(p, day(2025, 1, 10), nil)
	require.NoError(t, err)
	require.Len(t, events, 53)

	assert.Equal(t, models.EventTypeRecurringDue, events[0].EventType)
	assert.Equal(t, day(2025, 1, 14), events[0].EventDate)
	assert.Equal(t, models.EventTypeRecurringPayment, events[1].EventType)
	assert.Equal(t, day(2025, 1, 15), events[1].EventDate)
	assert.Equal(t, "Rent", events[1].EventTitle)
	for _, e := range events {
		require.NotNil(t, e.RecurringPaymentID)
		assert.Equal(t, uint(5), *e.RecurringPaymentID)
		assert.Equal(t, uint(1), e.UserID)
		assert.Equal(t, 1200.0, *e.Amount)
	}

	after := day(2025, 3, 1)
	future, err := BuildRecurringEvents(p, day(2025, 1, 10), &after)
	require.NoError(t, err)
	for _, e := range future {
		assert.True(t, e.EventDate.After(after))
		assert.Equal(t, models.EventTypeRecurringPayment, e.EventType)
	}
}

func TestNextDueOnOrAfter(t *testing.T) {
	assert.Equal(t, day(2025, 3, 31), NextDueOnOrAfter(day(2025, 1, 31), models.FrequencyMonthly, day(2025, 3, 5)))
	assert.Equal(t, day(2025, 3, 5), NextDueOnOrAfter(day(2025, 3, 5), models.FrequencyDaily, day(2025, 3, 5)))
	assert.Equal(t, day(2025, 1, 29), NextDueOnOrAfter(day(2025, 1, 1), models.FrequencyWeekly, day(2025, 1, 23)))
}

func TestCreateRecurringPayment_InvalidFrequencyWritesNothing(t *testing.T) {
	db, mock := setupMockDB(t)

	p := &models.RecurringPayment{UserID: 1, Amount: 10, PaymentName: "Gym", Frequency: "hourly", NextDueDate: day(2025, 1, 1)}
	_, err := CreateRecurringPayment(db, p, day(2025, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidFrequency)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecurringPayment_SingleTransaction(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `recurring_payments`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnResult(sqlmock.NewResult(1, 53))
	mock.ExpectCommit()

	p := &models.RecurringPayment{UserID: 1, Amount: 1200, PaymentName: "Rent", Frequency: "WEEKLY", NextDueDate: day(2025, 1, 15)}
	n, err := CreateRecurringPayment(db, p, day(2025, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, 53, n)
	assert.Equal(t, uint(5), p.ID)
	assert.Equal(t, models.FrequencyWeekly, p.Frequency)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecurringPayment_RollsBackOnEventFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `recurring_payments`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	p := &models.RecurringPayment{UserID: 1, Amount: 1200, PaymentName: "Rent", Frequency: "weekly", NextDueDate: day(2025, 1, 15)}
	_, err := CreateRecurringPayment(db, p, day(2025, 1, 10))
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRecurringPayment(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `calendar_events` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("UPDATE `recurring_payments` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := DeleteRecurringPayment(db, &models.RecurringPayment{ID: 5, UserID: 1}, day(2025, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(10), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectOccurrences_BackdatedAnchorReachesHorizon(t *testing.T) {
	now := day(2026, 10, 17)

	dates, err := ProjectOccurrences(day(2023, 1, 1), models.FrequencyDaily, now)
	require.NoError(t, err)
	require.Len(t, dates, 1751)
	assert.Equal(t, day(2023, 1, 1), dates[0])
	assert.Equal(t, day(2027, 10, 17), dates[len(dates)-1])

	// 过去的到期日不占用展开上限
	weekly, err := ProjectOccurrences(day(2000, 1, 3), models.FrequencyWeekly, now)
	require.NoError(t, err)
	last := weekly[len(weekly)-1]
	assert.False(t, last.After(now.AddDate(1, 0, 0)))
	assert.True(t, last.After(now.AddDate(0, 11, 0)))
}

func TestBuildRecurringEvents_BackdatedRegeneration(t *testing.T) {
	now := day(2026, 10, 17)
	p := &models.RecurringPayment{
		ID:          9,
		UserID:      1,
		Amount:      250,
		PaymentName: "Milk",
		Frequency:   models.FrequencyDaily,
		NextDueDate: day(2023, 1, 1),
	}

	events, err := BuildRecurringEvents(p, now, &now)
	require.NoError(t, err)
	require.Len(t, events, 365)
	assert.Equal(t, day(2026, 10, 18), events[0].EventDate)
	assert.Equal(t, day(2027, 10, 17), events[364].EventDate)
	for _, e := range events {
		assert.Equal(t, models.EventTypeRecurringPayment, e.EventType)
	}
}

func TestBuildRecurringEvents_MonthlyReminder(t *testing.T) {
	p := &models.RecurringPayment{
		ID:          2,
		UserID:      1,
		Amount:      45000,
		PaymentName: "Rent",
		Frequency:   models.FrequencyMonthly,
		NextDueDate: day(2025, 1, 15),
	}
	events, err := BuildRecurringEvents(p, day(2025, 1, 10), nil)
	require.NoError(t, err)
	require.Len(t, events, 13)

	assert.Equal(t, models.EventTypeRecurringDue, events[0].EventType)
	assert.Equal(t, day(2025, 1, 14), events[0].EventDate)
	assert.Equal(t, day(2025, 1, 15), events[1].EventDate)
	assert.Equal(t, day(2025, 2, 15), events[2].EventDate)
	assert.Equal(t, day(2025, 12, 15), events[12].EventDate)
}

func TestNextDueOnOrAfter_DistantAnchor(t *testing.T) {
	assert.Equal(t, day(2026, 10, 17), NextDueOnOrAfter(day(1990, 1, 1), models.FrequencyDaily, day(2026, 10, 17)))
	assert.Equal(t, day(2026, 2, 28), NextDueOnOrAfter(day(2024, 2, 29), models.FrequencyYearly, day(2025, 3, 1)))
	assert.Equal(t, day(2025, 1, 31), NextDueOnOrAfter(day(2025, 1, 31), models.FrequencyMonthly, day(2024, 6, 1)))
	assert.Equal(t, day(2026, 10, 31), NextDueOnOrAfter(day(2010, 1, 31), models.FrequencyMonthly, day(2026, 10, 31)))
	assert.Equal(t, day(2026, 11, 30), NextDueOnOrAfter(day(2010, 1, 31), models.FrequencyMonthly, day(2026, 11, 1)))
}

func TestUpdateRecurringPayment_RegeneratesFutureEvents(t *testing.T) {
	db, mock := setupMockDB(t)
	now := day(2025, 1, 10)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `calendar_events` SET `deleted_at`=.*recurring_payment_id = \\? AND event_date > \\?").
		WillReturnResult(sqlmock.NewResult(0, 53))
	mock.ExpectExec("UPDATE `recurring_payments` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnResult(sqlmock.NewResult(1, 13))
	mock.ExpectCommit()

	p := &models.RecurringPayment{ID: 5, UserID: 1, Amount: 1200, PaymentName: "Rent", Frequency: models.FrequencyWeekly, NextDueDate: day(2025, 1, 15)}
	amount, freq, name := 1500.0, "Monthly", " House rent "
	n, err := UpdateRecurringPayment(db, p, RecurringPaymentUpdate{Amount: &amount, Frequency: &freq, PaymentName: &name}, now)
	require.NoError(t, err)

	// 提醒 2025-01-14 + 2025-01-15 至 2025-12-15 共 12 次
	assert.Equal(t, 13, n)
	assert.Equal(t, 1500.0, p.Amount)
	assert.Equal(t, models.FrequencyMonthly, p.Frequency)
	assert.Equal(t, "House rent", p.PaymentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecurringPayment_RollsBackAndKeepsPayment(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `calendar_events` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `recurring_payments` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	p := &models.RecurringPayment{ID: 5, UserID: 1, Amount: 1200, PaymentName: "Rent", Frequency: models.FrequencyWeekly, NextDueDate: day(2025, 1, 15)}
	amount := 1500.0
	_, err := UpdateRecurringPayment(db, p, RecurringPaymentUpdate{Amount: &amount}, day(2025, 1, 10))
	assert.Error(t, err)
	assert.Equal(t, 1200.0, p.Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecurringPayment_RejectsBeforeWriting(t *testing.T) {
	db, mock := setupMockDB(t)
	p := &models.RecurringPayment{ID: 5, UserID: 1, Amount: 1200, PaymentName: "Rent", Frequency: models.FrequencyWeekly, NextDueDate: day(2025, 1, 15)}

	blank := "   "
	_, err := UpdateRecurringPayment(db, p, RecurringPaymentUpdate{PaymentName: &blank}, day(2025, 1, 10))
	assert.ErrorIs(t, err, ErrEmptyPaymentName)

	freq := "hourly"
	_, err = UpdateRecurringPayment(db, p, RecurringPaymentUpdate{Frequency: &freq}, day(2025, 1, 10))
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	assert.Equal(t, "Rent", p.PaymentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecurringPayment_BlankNameWritesNothing(t *testing.T) {
	db, mock := setupMockDB(t)

	p := &models.RecurringPayment{UserID: 1, Amount: 10, PaymentName: "  ", Frequency: "monthly", NextDueDate: day(2025, 1, 1)}
	_, err := CreateRecurringPayment(db, p, day(2025, 1, 1))
	assert.ErrorIs(t, err, ErrEmptyPaymentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForwardRecurringPayments(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `recurring_payments` WHERE next_due_date < \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "payment_name", "frequency", "next_due_date"}).
			AddRow(7, 1, 3000, "Gym", "monthly", day(2025, 1, 31)).
			AddRow(8, 1, 10, "Broken", "hourly", day(2025, 1, 1)))

	// 只有频率合法的付款会被顺延
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `recurring_payments` SET `next_due_date`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `calendar_events` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnResult(sqlmock.NewResult(1, 13))
	mock.ExpectCommit()

	rolled, err := RollForwardRecurringPayments(db, now)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForwardRecurringPayments_FailureKeepsGoing(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `recurring_payments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "payment_name", "frequency", "next_due_date"}).
			AddRow(7, 1, 3000, "Gym", "monthly", day(2025, 1, 31)).
			AddRow(9, 1, 500, "Paper", "weekly", day(2025, 2, 1)))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `recurring_payments` SET").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `recurring_payments` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `calendar_events` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnResult(sqlmock.NewResult(1, 53))
	mock.ExpectCommit()

	rolled, err := RollForwardRecurringPayments(db, now)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)
	require.NoError(t, mock.ExpectationsWereMet())
}
