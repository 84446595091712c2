package Controllers

import (
	"errors"
	"strconv"
	"time"

	"Basalt/Hauling"
	"Basalt/Models"
	"Basalt/Slack"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HaulingHandler contains handler methods for hauling activity routes
type HaulingHandler struct {
	DB *gorm.DB
}

// NewHaulingHandler creates a new hauling activity handler
func NewHaulingHandler(db *gorm.DB) *HaulingHandler {
	return &HaulingHandler{DB: db}
}

// CreateActivityRequest is the manual creation payload. Manually created
// activities start queued, unlike batch-created ones which go straight to
// loading.
type CreateActivityRequest struct {
	TruckID             uint    `json:"truck_id"`
	OperatorID          uint    `json:"operator_id"`
	ExcavatorID         *uint   `json:"excavator_id"`
	ExcavatorOperatorID *uint   `json:"excavator_operator_id"`
	SupervisorID        *uint   `json:"supervisor_id"`
	LoadingPointID      uint    `json:"loading_point_id"`
	DumpingPointID      uint    `json:"dumping_point_id"`
	RoadSegmentID       *uint   `json:"road_segment_id"`
	Shift               string  `json:"shift"`
	TargetWeight        float64 `json:"target_weight"`
}

// GetActivities returns hauling activities with optional status, shift,
// truck and date filters
func (h *HaulingHandler) GetActivities(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.HaulingActivity{}).
		Preload("Truck").Preload("Excavator")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if shift := c.Query("shift"); shift != "" {
		query = query.Where("shift = ?", shift)
	}
	if truckID := c.Query("truck_id"); truckID != "" {
		query = query.Where("truck_id = ?", truckID)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("activity_number LIKE ?", "HA-"+date+"-%")
	}

	var activities []Models.HaulingActivity
	if err := query.Order("id DESC").Find(&activities).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": activities})
}

// GetActivity returns a single hauling activity by ID
func (h *HaulingHandler) GetActivity(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	var activity Models.HaulingActivity
	if err := h.DB.Preload("Truck").Preload("Excavator").First(&activity, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Activity not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": activity})
}

// CreateActivity creates one activity manually in IN_QUEUE state
func (h *HaulingHandler) CreateActivity(c *fiber.Ctx) error {
	var req CreateActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if req.TruckID == 0 || req.OperatorID == 0 || req.LoadingPointID == 0 || req.DumpingPointID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "truck_id, operator_id, loading_point_id and dumping_point_id are required",
		})
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Transaction error",
			"message": tx.Error.Error(),
		})
	}

	if err := Hauling.ValidateTruckAssignment(tx, req.TruckID, 0); err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := Hauling.ValidateOperatorAssignment(tx, req.OperatorID, 0, false); err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if req.ExcavatorID != nil {
		if err := Hauling.ValidateExcavatorAssignment(tx, *req.ExcavatorID); err != nil {
			tx.Rollback()
			return lifecycleError(c, err)
		}
	}
	if req.ExcavatorOperatorID != nil {
		if err := Hauling.ValidateOperatorAssignment(tx, *req.ExcavatorOperatorID, 0, true); err != nil {
			tx.Rollback()
			return lifecycleError(c, err)
		}
	}

	now := time.Now()
	number, err := Hauling.NextActivityNumber(tx, now)
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate activity number",
			"message": err.Error(),
		})
	}

	activity := Models.HaulingActivity{
		ActivityNumber:      number,
		TruckID:             req.TruckID,
		OperatorID:          req.OperatorID,
		ExcavatorID:         req.ExcavatorID,
		ExcavatorOperatorID: req.ExcavatorOperatorID,
		SupervisorID:        req.SupervisorID,
		LoadingPointID:      req.LoadingPointID,
		DumpingPointID:      req.DumpingPointID,
		RoadSegmentID:       req.RoadSegmentID,
		Shift:               req.Shift,
		Status:              Models.ActivityInQueue,
		QueueStartTime:      &now,
		TargetWeight:        req.TargetWeight,
	}
	if err := tx.Create(&activity).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create activity",
			"message": err.Error(),
		})
	}

	if err := tx.Model(&Models.Truck{}).Where("id = ?", req.TruckID).
		Updates(map[string]interface{}{
			"status":              Models.StatusInQueue,
			"current_operator_id": req.OperatorID,
		}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to update truck status",
			"message": err.Error(),
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to commit transaction",
			"message": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Activity created",
		"data":    activity,
	})
}

// UpdateActivity applies a general mutation through the lifecycle engine
func (h *HaulingHandler) UpdateActivity(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	var input Hauling.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	activity, err := Hauling.Update(h.DB, uint(id), input)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Activity updated", "data": activity})
}

// StartLoading handles POST /api/hauling/:id/start-loading
func (h *HaulingHandler) StartLoading(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	activity, err := Hauling.StartLoading(h.DB, uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Loading started", "data": activity})
}

// CompleteLoading handles POST /api/hauling/:id/complete-loading
func (h *HaulingHandler) CompleteLoading(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	var input Hauling.CompleteLoadingInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	activity, err := Hauling.CompleteLoading(h.DB, uint(id), input)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Loading completed", "data": activity})
}

// CompleteDumping handles POST /api/hauling/:id/complete-dumping
func (h *HaulingHandler) CompleteDumping(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	activity, err := Hauling.CompleteDumping(h.DB, uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dumping completed", "data": activity})
}

// Complete handles POST /api/hauling/:id/complete
func (h *HaulingHandler) Complete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	var body struct {
		LoadWeight *float64 `json:"load_weight"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid request body",
				"message": err.Error(),
			})
		}
	}

	activity, err := Hauling.Complete(h.DB, uint(id), body.LoadWeight)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cycle completed", "data": activity})
}

// Cancel handles POST /api/hauling/:id/cancel
func (h *HaulingHandler) Cancel(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	activity, err := Hauling.Cancel(h.DB, uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Activity cancelled", "data": activity})
}

// AddDelay handles POST /api/hauling/:id/delay
func (h *HaulingHandler) AddDelay(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activity ID"})
	}

	var body struct {
		Minutes       int   `json:"minutes"`
		DelayReasonID *uint `json:"delay_reason_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if body.Minutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "minutes must be positive",
		})
	}

	activity, err := Hauling.AddDelay(h.DB, uint(id), body.Minutes, body.DelayReasonID)
	if err != nil {
		return lifecycleError(c, err)
	}

	reasonName := ""
	if activity.DelayReasonID != nil {
		var reason Models.DelayReason
		if err := h.DB.First(&reason, *activity.DelayReasonID).Error; err == nil {
			reasonName = reason.Name
		}
	}
	go Slack.NotifyDelay(activity.ActivityNumber, body.Minutes, reasonName)

	return c.JSON(fiber.Map{"message": "Delay recorded", "data": activity})
}

// lifecycleError maps engine errors onto HTTP status codes
func lifecycleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, Hauling.ErrInvalidTransition),
		errors.Is(err, Hauling.ErrTerminalLocked),
		errors.Is(err, Hauling.ErrTruckUnavailable),
		errors.Is(err, Hauling.ErrOperatorUnavailable),
		errors.Is(err, Hauling.ErrExcavatorUnavailable),
		errors.Is(err, Hauling.ErrLicenseMismatch):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   "Operation failed",
		"message": err.Error(),
	})
}
