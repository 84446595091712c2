package Controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"Basalt/Models"
	"Basalt/Production"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ProductionHandler contains handler methods for production record routes
type ProductionHandler struct {
	DB *gorm.DB
}

// NewProductionHandler creates a new production record handler
func NewProductionHandler(db *gorm.DB) *ProductionHandler {
	return &ProductionHandler{DB: db}
}

// GetRecords returns production records with optional date/shift filters
func (h *ProductionHandler) GetRecords(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.ProductionRecord{})
	if date := c.Query("date"); date != "" {
		query = query.Where("record_date = ?", date)
	}
	if shift := c.Query("shift"); shift != "" {
		query = query.Where("shift = ?", shift)
	}

	var records []Models.ProductionRecord
	if err := query.Order("record_date DESC, shift ASC").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": records})
}

// GetRecord returns a single production record with its linked activities
func (h *ProductionHandler) GetRecord(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid record ID"})
	}

	var record Models.ProductionRecord
	if err := h.DB.First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production record not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	var activities []Models.HaulingActivity
	if ids := record.LinkedActivityIDs(); len(ids) > 0 {
		h.DB.Where("id IN ?", ids).Find(&activities)
	}
	return c.JSON(fiber.Map{"data": record, "activities": activities})
}

// Reconcile handles POST /api/production/:id/reconcile
func (h *ProductionHandler) Reconcile(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid record ID"})
	}

	if err := Production.ReconcileRecord(h.DB, uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production record not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Reconciliation failed",
			"message": err.Error(),
		})
	}

	var record Models.ProductionRecord
	h.DB.First(&record, id)
	return c.JSON(fiber.Map{"message": "Record reconciled", "data": record})
}

// Redistribute handles POST /api/production/:id/redistribute
func (h *ProductionHandler) Redistribute(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid record ID"})
	}

	var body struct {
		Target *float64 `json:"target"`
	}
	if err := c.BodyParser(&body); err != nil || body.Target == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "target is required",
		})
	}

	if err := Production.RedistributeTargets(h.DB, uint(id), *body.Target); err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production record not found"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Redistribution failed",
			"message": err.Error(),
		})
	}

	var record Models.ProductionRecord
	h.DB.First(&record, id)
	return c.JSON(fiber.Map{"message": "Targets redistributed", "data": record})
}

// Sync handles POST /api/production/sync, the explicit repair sweep
func (h *ProductionHandler) Sync(c *fiber.Ctx) error {
	repaired, err := Production.SyncAll(h.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Sync failed",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Sync completed", "repaired": repaired})
}

// Export handles GET /api/production/export?date=YYYY-MM-DD, returning an
// Excel workbook of the day's production records and their hauls
func (h *ProductionHandler) Export(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid date format",
			"message": "date must be YYYY-MM-DD",
		})
	}

	var records []Models.ProductionRecord
	if err := h.DB.Where("record_date = ?", date).Order("shift ASC").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Production"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Shift", "Site", "Target (t)", "Actual (t)", "Achievement (%)", "Hauls"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetColWidth(sheet, "A", "G", 16)

	siteNames := map[uint]string{}
	for row, record := range records {
		siteName, ok := siteNames[record.MiningSiteID]
		if !ok {
			var site Models.MiningSite
			if err := h.DB.First(&site, record.MiningSiteID).Error; err == nil {
				siteName = site.Name
			}
			siteNames[record.MiningSiteID] = siteName
		}

		values := []interface{}{
			record.RecordDate,
			record.Shift,
			siteName,
			record.TargetProduction,
			record.ActualProduction,
			record.Achievement,
			len(record.LinkedActivityIDs()),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	haulSheet := "Hauls"
	f.NewSheet(haulSheet)
	haulHeaders := []string{"Activity", "Shift", "Status", "Load (t)", "Target (t)", "Efficiency (%)", "Cycle (min)", "Delay (min)"}
	for i, header := range haulHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(haulSheet, cell, header)
	}
	f.SetColWidth(haulSheet, "A", "H", 16)

	var activities []Models.HaulingActivity
	dayPrefix := "HA-" + strings.ReplaceAll(date, "-", "")
	if err := h.DB.Where("activity_number LIKE ?", dayPrefix+"-%").
		Order("activity_number ASC").Find(&activities).Error; err == nil {
		for row, activity := range activities {
			values := []interface{}{
				activity.ActivityNumber,
				activity.Shift,
				activity.Status,
				activity.LoadWeight,
				activity.TargetWeight,
				activity.LoadEfficiency,
				activity.TotalCycleTime,
				activity.DelayMinutes,
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(haulSheet, cell, value)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate workbook",
			"message": err.Error(),
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="production-%s.xlsx"`, date))
	return c.Send(buffer.Bytes())
}
