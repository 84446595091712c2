package Hauling

import (
	"fmt"
	"log"
	"time"

	"Basalt/Models"
	"Basalt/Production"

	"gorm.io/gorm"
)

// CompleteLoadingInput carries the optional overrides for the
// complete-loading transition
type CompleteLoadingInput struct {
	LoadWeight      *float64 `json:"load_weight"`
	LoadingDuration *float64 `json:"loading_duration"`
}

// UpdateInput is the general mutation payload. Nil pointers leave the
// field untouched.
type UpdateInput struct {
	TruckID             *uint    `json:"truck_id"`
	OperatorID          *uint    `json:"operator_id"`
	ExcavatorID         *uint    `json:"excavator_id"`
	ExcavatorOperatorID *uint    `json:"excavator_operator_id"`
	SupervisorID        *uint    `json:"supervisor_id"`
	LoadingPointID      *uint    `json:"loading_point_id"`
	DumpingPointID      *uint    `json:"dumping_point_id"`
	RoadSegmentID       *uint    `json:"road_segment_id"`
	Shift               *string  `json:"shift"`
	Status              *string  `json:"status"`
	LoadWeight          *float64 `json:"load_weight"`
	TargetWeight        *float64 `json:"target_weight"`
}

func minutesSince(start *time.Time, end time.Time) float64 {
	if start == nil {
		return 0
	}
	return end.Sub(*start).Minutes()
}

func fetchForTransition(tx *gorm.DB, id uint) (*Models.HaulingActivity, error) {
	var activity Models.HaulingActivity
	if err := tx.First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// reconcileAfterLoadChange propagates a load-weight write into every
// production record that links the activity. Reconciliation failures are
// repair-path problems, they never fail the lifecycle call.
func reconcileAfterLoadChange(db *gorm.DB, activityID uint) {
	if err := Production.ReconcileActivity(db, activityID); err != nil {
		log.Printf("Production reconciliation after activity %d failed: %v", activityID, err)
	}
}

// StartLoading moves a queued activity into LOADING and mirrors the truck
func StartLoading(db *gorm.DB, id uint) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.Status != Models.ActivityInQueue {
		tx.Rollback()
		return nil, fmt.Errorf("%w: start-loading requires IN_QUEUE, activity %s is %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	now := time.Now()
	activity.QueueEndTime = &now
	activity.QueueDuration = minutesSince(activity.QueueStartTime, now)
	activity.LoadingStartTime = &now
	activity.Status = Models.ActivityLoading

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&Models.Truck{}).Where("id = ?", activity.TruckID).
		Update("status", Models.StatusLoading).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// CompleteLoading moves LOADING -> HAULING, deriving the loading duration
// and load efficiency
func CompleteLoading(db *gorm.DB, id uint, input CompleteLoadingInput) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.Status != Models.ActivityLoading {
		tx.Rollback()
		return nil, fmt.Errorf("%w: complete-loading requires LOADING, activity %s is %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	now := time.Now()
	loadChanged := false
	if input.LoadWeight != nil {
		activity.LoadWeight = *input.LoadWeight
		loadChanged = true
	}

	activity.LoadingEndTime = &now
	if input.LoadingDuration != nil {
		activity.LoadingDuration = *input.LoadingDuration
	} else {
		activity.LoadingDuration = minutesSince(activity.LoadingStartTime, now)
	}
	if activity.TargetWeight > 0 {
		activity.LoadEfficiency = activity.LoadWeight / activity.TargetWeight * 100
	}

	activity.Status = Models.ActivityHauling
	activity.HaulingStartTime = &now

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&Models.Truck{}).Where("id = ?", activity.TruckID).
		Update("status", Models.StatusHauling).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if loadChanged {
		reconcileAfterLoadChange(db, activity.ID)
	}
	return activity, nil
}

// CompleteDumping moves HAULING/DUMPING -> RETURNING. Hauling and dumping
// durations are derived from the recorded timestamps, falling back to now
// for boundaries that were never stamped. The truck keeps its HAULING
// mirror status, it is physically driving back.
func CompleteDumping(db *gorm.DB, id uint) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.Status != Models.ActivityHauling && activity.Status != Models.ActivityDumping {
		tx.Rollback()
		return nil, fmt.Errorf("%w: complete-dumping requires HAULING or DUMPING, activity %s is %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	now := time.Now()
	if activity.HaulingEndTime == nil {
		activity.HaulingEndTime = &now
	}
	activity.HaulingDuration = minutesSince(activity.HaulingStartTime, *activity.HaulingEndTime)

	if activity.DumpingStartTime == nil {
		activity.DumpingStartTime = activity.HaulingEndTime
	}
	activity.DumpingEndTime = &now
	activity.DumpingDuration = minutesSince(activity.DumpingStartTime, now)

	activity.Status = Models.ActivityReturning
	activity.ReturnStartTime = &now

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// Complete closes the cycle from any non-terminal status. The truck goes
// back to STANDBY with its operator released and cumulative counters
// bumped; the excavator is only released when no other live activity
// still references it.
func Complete(db *gorm.DB, id uint, loadWeight *float64) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.IsTerminal() {
		tx.Rollback()
		return nil, fmt.Errorf("%w: activity %s is already %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	now := time.Now()
	loadChanged := false
	if loadWeight != nil {
		activity.LoadWeight = *loadWeight
		if activity.TargetWeight > 0 {
			activity.LoadEfficiency = activity.LoadWeight / activity.TargetWeight * 100
		}
		loadChanged = true
	}

	activity.ReturnEndTime = &now
	activity.ReturnDuration = minutesSince(activity.ReturnStartTime, now)

	cycleStart := activity.QueueStartTime
	if cycleStart == nil {
		cycleStart = activity.LoadingStartTime
	}
	if cycleStart == nil {
		created := activity.CreatedAt
		cycleStart = &created
	}
	activity.TotalCycleTime = now.Sub(*cycleStart).Minutes()
	activity.Status = Models.ActivityCompleted

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	distance := 0.0
	if activity.RoadSegmentID != nil {
		var segment Models.RoadSegment
		if err := tx.First(&segment, *activity.RoadSegmentID).Error; err == nil {
			distance = segment.DistanceKm
		}
	}
	truckUpdates := map[string]interface{}{
		"status":              Models.StatusStandby,
		"current_operator_id": nil,
		"total_hours":         gorm.Expr("total_hours + ?", activity.TotalCycleTime/60),
		"total_distance":      gorm.Expr("total_distance + ?", distance*2),
	}
	if err := tx.Model(&Models.Truck{}).Where("id = ?", activity.TruckID).
		Updates(truckUpdates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := releaseExcavatorIfUnused(tx, activity); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if loadChanged {
		reconcileAfterLoadChange(db, activity.ID)
	}
	return activity, nil
}

// Cancel aborts a non-terminal activity and releases its equipment
func Cancel(db *gorm.DB, id uint) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.IsTerminal() {
		tx.Rollback()
		return nil, fmt.Errorf("%w: cannot cancel activity %s in status %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	activity.Status = Models.ActivityCancelled
	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&Models.Truck{}).Where("id = ?", activity.TruckID).
		Updates(map[string]interface{}{
			"status":              Models.StatusStandby,
			"current_operator_id": nil,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := releaseExcavatorIfUnused(tx, activity); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// AddDelay accumulates delay minutes and attaches a reason without moving
// the activity out of its current phase
func AddDelay(db *gorm.DB, id uint, minutes int, reasonID *uint) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if activity.IsTerminal() {
		tx.Rollback()
		return nil, fmt.Errorf("%w: cannot delay activity %s in status %s",
			ErrInvalidTransition, activity.ActivityNumber, activity.Status)
	}

	activity.IsDelayed = true
	activity.DelayMinutes += minutes
	if reasonID != nil {
		var reason Models.DelayReason
		if err := tx.First(&reason, *reasonID).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		activity.DelayReasonID = reasonID
	}

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// Update applies a general mutation. Terminal activities only accept
// load-weight writes; reassigned equipment and operators are re-validated
// exactly as at creation time.
func Update(db *gorm.DB, id uint, input UpdateInput) (*Models.HaulingActivity, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	activity, err := fetchForTransition(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if activity.Status == Models.ActivityCompleted || activity.Status == Models.ActivityCancelled {
		if lockedFieldTouched(input) {
			tx.Rollback()
			return nil, fmt.Errorf("%w: activity %s is %s",
				ErrTerminalLocked, activity.ActivityNumber, activity.Status)
		}
	}

	if input.TruckID != nil && *input.TruckID != activity.TruckID {
		if err := ValidateTruckAssignment(tx, *input.TruckID, activity.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
		activity.TruckID = *input.TruckID
	}
	if input.OperatorID != nil && *input.OperatorID != activity.OperatorID {
		if err := ValidateOperatorAssignment(tx, *input.OperatorID, activity.ID, false); err != nil {
			tx.Rollback()
			return nil, err
		}
		activity.OperatorID = *input.OperatorID
	}
	if input.ExcavatorID != nil {
		if err := ValidateExcavatorAssignment(tx, *input.ExcavatorID); err != nil {
			tx.Rollback()
			return nil, err
		}
		activity.ExcavatorID = input.ExcavatorID
	}
	if input.ExcavatorOperatorID != nil {
		current := uint(0)
		if activity.ExcavatorOperatorID != nil {
			current = *activity.ExcavatorOperatorID
		}
		if *input.ExcavatorOperatorID != current {
			if err := ValidateOperatorAssignment(tx, *input.ExcavatorOperatorID, activity.ID, true); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		activity.ExcavatorOperatorID = input.ExcavatorOperatorID
	}

	if input.SupervisorID != nil {
		activity.SupervisorID = input.SupervisorID
	}
	if input.LoadingPointID != nil {
		activity.LoadingPointID = *input.LoadingPointID
	}
	if input.DumpingPointID != nil {
		activity.DumpingPointID = *input.DumpingPointID
	}
	if input.RoadSegmentID != nil {
		activity.RoadSegmentID = input.RoadSegmentID
	}
	if input.Shift != nil {
		activity.Shift = *input.Shift
	}

	loadChanged := false
	if input.LoadWeight != nil {
		activity.LoadWeight = *input.LoadWeight
		loadChanged = true
	}
	if input.TargetWeight != nil {
		activity.TargetWeight = *input.TargetWeight
	}
	if input.LoadWeight != nil && input.TargetWeight != nil && *input.TargetWeight > 0 {
		activity.LoadEfficiency = *input.LoadWeight / *input.TargetWeight * 100
	}

	if input.Status != nil && *input.Status != activity.Status {
		activity.Status = *input.Status
		if truckStatus, ok := TruckStatusForActivity(*input.Status); ok {
			if err := tx.Model(&Models.Truck{}).Where("id = ?", activity.TruckID).
				Update("status", truckStatus).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Save(activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if loadChanged {
		reconcileAfterLoadChange(db, activity.ID)
	}
	return activity, nil
}

// lockedFieldTouched reports whether the patch writes any field frozen by
// a terminal status. Load and target weight stay writable for late scale
// tickets.
func lockedFieldTouched(input UpdateInput) bool {
	return input.TruckID != nil ||
		input.OperatorID != nil ||
		input.ExcavatorID != nil ||
		input.ExcavatorOperatorID != nil ||
		input.LoadingPointID != nil ||
		input.DumpingPointID != nil ||
		input.RoadSegmentID != nil ||
		input.Shift != nil ||
		input.Status != nil
}

func releaseExcavatorIfUnused(tx *gorm.DB, activity *Models.HaulingActivity) error {
	if activity.ExcavatorID == nil {
		return nil
	}
	inUse, err := ExcavatorInUseElsewhere(tx, *activity.ExcavatorID, activity.ID)
	if err != nil {
		return err
	}
	if inUse {
		return nil
	}
	return tx.Model(&Models.Excavator{}).Where("id = ?", *activity.ExcavatorID).
		Update("status", Models.StatusStandby).Error
}
