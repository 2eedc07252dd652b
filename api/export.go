package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

var exportHeaders = []string{"ID", "日期", "类型", "类别", "金额", "商户", "描述", "创建时间"}

// loadExportRange 解析 start_date / end_date（含当天）并查询区间内的收支记录
func loadExportRange(c *gin.Context) ([]models.Transaction, string, string, bool) {
	userID := middleware.GetCurrentUserID(c)

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return nil, "", "", false
	}
	start, err := parseDate(startStr)
	if err != nil {
		BadRequest(c, "开始"+err.Error())
		return nil, "", "", false
	}
	end, err := parseDate(endStr)
	if err != nil {
		BadRequest(c, "结束"+err.Error())
		return nil, "", "", false
	}
	if end.Before(start) {
		BadRequest(c, "结束日期不能早于开始日期")
		return nil, "", "", false
	}

	var list []models.Transaction
	if err := database.DB.Preload("Category").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end.AddDate(0, 0, 1)).
		Order("date DESC, id DESC").
		Find(&list).Error; err != nil {
		ServerError(c, err, "查询数据失败")
		return nil, "", "", false
	}
	return list, startStr, endStr, true
}

func exportRow(t models.Transaction) []string {
	category := ""
	if t.Category != nil {
		category = t.Category.Name
	}
	return []string{
		fmt.Sprintf("%d", t.ID),
		t.Date.Format(dateLayout),
		t.TransactionType,
		category,
		fmt.Sprintf("%.2f", t.Amount),
		t.Vendor,
		t.Description,
		t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出收支记录 (CSV)
// @Description 根据日期范围导出收支记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2025-01-01)"
// @Param end_date query string true "结束日期 (2025-01-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/transactions/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	list, startStr, endStr, ok := loadExportRange(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, t := range list {
		if err := writer.Write(exportRow(t)); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", startStr, endStr)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出收支记录 (Excel)
// @Description 根据日期范围导出收支记录为 xlsx，末行为收入/支出合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2025-01-01)"
// @Param end_date query string true "结束日期 (2025-01-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/transactions/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	list, startStr, endStr, ok := loadExportRange(c)
	if !ok {
		return
	}

	f, err := buildTransactionWorkbook(list)
	if err != nil {
		ServerError(c, err, "生成 Excel 失败")
		return
	}
	defer f.Close()

	filename := url.PathEscape(fmt.Sprintf("收支记录_%s_%s.xlsx", startStr, endStr))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		ServerError(c, err, "生成 Excel 失败")
		return
	}
}

// buildTransactionWorkbook 生成收支记录工作簿
func buildTransactionWorkbook(list []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "收支记录"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})

	widths := []float64{8, 12, 10, 14, 14, 18, 30, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, w)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	credit, debit := decimal.Zero, decimal.Zero
	for i, t := range list {
		row := i + 2
		values := exportRow(t)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if col == 4 {
				_ = f.SetCellValue(sheetName, cell, t.Amount)
				continue
			}
			_ = f.SetCellValue(sheetName, cell, v)
		}
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), dataStyle)

		if t.TransactionType == models.TransactionTypeCredit {
			credit = credit.Add(decimal.NewFromFloat(t.Amount))
		} else {
			debit = debit.Add(decimal.NewFromFloat(t.Amount))
		}
	}

	summaryRow := len(list) + 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	_ = f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", summaryRow), credit.Sub(debit).Round(2).InexactFloat64())
	_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", summaryRow),
		fmt.Sprintf("收入 %s / 支出 %s / 共 %d 条", credit.StringFixed(2), debit.StringFixed(2), len(list)))
	_ = f.MergeCell(sheetName, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("H%d", summaryRow))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("H%d", summaryRow), summaryStyle)

	return f, nil
}

