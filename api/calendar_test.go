package api

import (
	"encoding/json"
	"testing"
	"time"

	"fintrack/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"id", "user_id", "event_title", "event_date", "event_type", "description", "amount", "recurring_payment_id", "created_at", "updated_at", "deleted_at"}

func calendarRouter() *gin.Engine {
	h := NewCalendarHandler()
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/calendar", h.List)
	router.POST("/calendar", h.Create)
	router.PUT("/calendar/:id", h.Update)
	router.DELETE("/calendar/:id", h.Delete)
	return router
}

func TestCalendarHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `calendar_events`").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	w := performJSON(calendarRouter(), "POST", "/calendar", `{"event_title":"信用卡还款","event_date":"2025-03-15","amount":12000}`)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, models.EventTypeCustom, data["event_type"])
	assert.Equal(t, "2025-03-15T00:00:00Z", data["event_date"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarHandler_Update_CannotRetype(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `calendar_events`").
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow(7, 1, "房租", day, models.EventTypeRecurringPayment, "", 45000.0, 3, day, day, nil))

	w := performJSON(calendarRouter(), "PUT", "/calendar/7", `{"event_type":"custom"}`)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarHandler_Update_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `calendar_events`").
		WillReturnRows(sqlmock.NewRows(eventColumns))

	w := performJSON(calendarRouter(), "PUT", "/calendar/7", `{"event_title":"x"}`)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarHandler_List(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `calendar_events`").
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow(6, 1, "房租", day.AddDate(0, 0, -1), models.EventTypeRecurringDue, "", nil, 3, day, day, nil).
			AddRow(7, 1, "房租", day, models.EventTypeRecurringPayment, "", 45000.0, 3, day, day, nil))

	w := performJSON(calendarRouter(), "GET", "/calendar?start=2025-02-01&end=2025-03-31", "")

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data []models.CalendarEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, models.EventTypeRecurringDue, resp.Data[0].EventType)
	assert.Nil(t, resp.Data[0].Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarHandler_List_BadRange(t *testing.T) {
	w := performJSON(calendarRouter(), "GET", "/calendar?start=01-02-2025", "")
	assert.Equal(t, 400, w.Code)
}
