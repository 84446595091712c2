package Controllers

import (
	"strconv"

	"Basalt/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EquipmentHandler serves the read-only equipment registry
type EquipmentHandler struct {
	DB *gorm.DB
}

// NewEquipmentHandler creates a new equipment registry handler
func NewEquipmentHandler(db *gorm.DB) *EquipmentHandler {
	return &EquipmentHandler{DB: db}
}

// GetTrucks returns trucks, optionally filtered by status or availability
func (h *EquipmentHandler) GetTrucks(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Truck{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_active = ? AND status IN ?", true, Models.AvailableTruckStatuses)
	}

	var trucks []Models.Truck
	if err := query.Order("code ASC").Find(&trucks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": trucks})
}

// GetTruck returns a single truck by ID
func (h *EquipmentHandler) GetTruck(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid truck ID"})
	}

	var truck Models.Truck
	if err := h.DB.First(&truck, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Truck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": truck})
}

// GetExcavators returns excavators, optionally filtered
func (h *EquipmentHandler) GetExcavators(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Excavator{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_active = ? AND status IN ?", true, Models.AvailableExcavatorStatuses)
	}

	var excavators []Models.Excavator
	if err := query.Order("code ASC").Find(&excavators).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": excavators})
}

// GetExcavator returns a single excavator by ID
func (h *EquipmentHandler) GetExcavator(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid excavator ID"})
	}

	var excavator Models.Excavator
	if err := h.DB.First(&excavator, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Excavator not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": excavator})
}

// GetOperators returns operators, optionally filtered by status, license
// or shift
func (h *EquipmentHandler) GetOperators(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Operator{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if license := c.Query("license_type"); license != "" {
		query = query.Where("license_type = ?", license)
	}
	if shift := c.Query("shift"); shift != "" {
		query = query.Where("shift = ?", shift)
	}

	var operators []Models.Operator
	if err := query.Order("rating DESC").Find(&operators).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": operators})
}

// GetOperator returns a single operator by ID
func (h *EquipmentHandler) GetOperator(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid operator ID"})
	}

	var operator Models.Operator
	if err := h.DB.First(&operator, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operator not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": operator})
}

// GetDelayReasons lists the active delay reason codes
func (h *EquipmentHandler) GetDelayReasons(c *fiber.Ctx) error {
	var reasons []Models.DelayReason
	if err := h.DB.Where("is_active = ?", true).Order("code ASC").Find(&reasons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": reasons})
}

// GetFleetSummary returns per-status counts for the dispatch widgets
func (h *EquipmentHandler) GetFleetSummary(c *fiber.Ctx) error {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var truckCounts []statusCount
	if err := h.DB.Model(&Models.Truck{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&truckCounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	var excavatorCounts []statusCount
	if err := h.DB.Model(&Models.Excavator{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&excavatorCounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	var activeHauls int64
	h.DB.Model(&Models.HaulingActivity{}).
		Where("status IN ?", Models.ActiveActivityStatuses).Count(&activeHauls)

	return c.JSON(fiber.Map{
		"trucks":       truckCounts,
		"excavators":   excavatorCounts,
		"active_hauls": activeHauls,
	})
}
