package Allocation

import (
	"errors"
	"fmt"
	"time"

	"Basalt/Hauling"
	"Basalt/Models"

	"gorm.io/gorm"
)

// ApplyRecommendation turns an external allocation decision into database
// state. Update mode patches one existing non-terminal activity through
// the lifecycle update path; create mode builds one activity per truck
// inside a single all-or-nothing transaction.
func ApplyRecommendation(db *gorm.DB, rec Recommendation) (*BatchResult, error) {
	if rec.ActivityID != nil {
		return applyUpdate(db, rec)
	}
	return applyCreate(db, rec)
}

func applyUpdate(db *gorm.DB, rec Recommendation) (*BatchResult, error) {
	patch := Hauling.UpdateInput{}
	if rec.Patch != nil {
		patch = *rec.Patch
	}
	activity, err := Hauling.Update(db, *rec.ActivityID, patch)
	if err != nil {
		return nil, err
	}
	return &BatchResult{
		CreatedCount:      0,
		CreatedActivities: []Models.HaulingActivity{*activity},
	}, nil
}

func applyCreate(db *gorm.DB, rec Recommendation) (*BatchResult, error) {
	if len(rec.TruckIDs) == 0 {
		return nil, errors.New("at least one truck id is required")
	}

	requiredTrucks := len(rec.TruckIDs)
	requiredExcavators := len(rec.ExcavatorIDs)
	if requiredExcavators < 1 {
		requiredExcavators = 1
	}

	// Availability runs before the transaction opens; claims inside the
	// transaction are conditional so a racing batch loses cleanly.
	availability, err := FilterAvailability(db, rec.TruckIDs, rec.ExcavatorIDs, requiredTrucks, requiredExcavators)
	if err != nil {
		if availability != nil {
			return &BatchResult{Warnings: availability.Warnings}, err
		}
		return nil, err
	}
	warnings := availability.Warnings

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	taken := make(map[uint]bool)
	truckOperators, opWarnings, err := AllocateTruckOperators(tx, rec.OperatorIDs, len(availability.TruckIDs), rec.Shift, taken)
	warnings = append(warnings, opWarnings...)
	if err != nil {
		tx.Rollback()
		return &BatchResult{Warnings: warnings}, err
	}

	excavatorOperators, exWarnings, err := AllocateExcavatorOperators(tx, len(availability.ExcavatorIDs), rec.Shift, taken)
	warnings = append(warnings, exWarnings...)
	if err != nil {
		tx.Rollback()
		return &BatchResult{Warnings: warnings}, err
	}

	siteCtx, err := ResolveSiteContext(tx, rec.MiningSiteID, rec.LoadingPointID, rec.DumpingPointID, rec.RoadSegmentID)
	if err != nil {
		tx.Rollback()
		return &BatchResult{Warnings: warnings}, err
	}
	warnings = append(warnings, siteCtx.Warnings...)

	targetPerActivity := 0.0
	if rec.TotalProductionTarget != nil {
		targetPerActivity = *rec.TotalProductionTarget / float64(len(availability.TruckIDs))
	} else if rec.TargetWeight != nil {
		targetPerActivity = *rec.TargetWeight
	}

	trucks, err := loadTrucks(tx, availability.TruckIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	excavators, err := loadExcavators(tx, availability.ExcavatorIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	distance := 0.0
	if siteCtx.RoadSegmentID != nil {
		var segment Models.RoadSegment
		if err := tx.First(&segment, *siteCtx.RoadSegmentID).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		distance = segment.DistanceKm
	}

	now := time.Now()
	created := make([]Models.HaulingActivity, 0, len(availability.TruckIDs))
	assignmentTally := make(map[uint]int)

	for i, truckID := range availability.TruckIDs {
		truck := trucks[truckID]
		operatorID := truckOperators[i]

		excavatorID := availability.ExcavatorIDs[i%len(availability.ExcavatorIDs)]
		excavator := excavators[excavatorID]

		// No qualified driver means no excavator for this slot; the haul
		// still runs, the loading is just slower.
		var activityExcavatorID *uint
		var activityExcavatorOperatorID *uint
		if len(excavatorOperators) > 0 {
			excavatorOperatorID := pickBalanced(excavatorOperators, assignmentTally)
			assignmentTally[excavatorOperatorID]++
			activityExcavatorID = &excavator.ID
			activityExcavatorOperatorID = &excavatorOperatorID
		} else {
			warnings = append(warnings, fmt.Sprintf("truck %s allocated without excavator, no qualified operator", truck.Code))
		}

		number, err := Hauling.NextActivityNumber(tx, now)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		activity := Models.HaulingActivity{
			ActivityNumber:      number,
			TruckID:             truckID,
			OperatorID:          operatorID,
			ExcavatorID:         activityExcavatorID,
			ExcavatorOperatorID: activityExcavatorOperatorID,
			SupervisorID:        rec.SupervisorID,
			LoadingPointID:      siteCtx.LoadingPointID,
			DumpingPointID:      siteCtx.DumpingPointID,
			RoadSegmentID:       siteCtx.RoadSegmentID,
			Shift:               rec.Shift,
			Status:              Models.ActivityLoading,
			QueueStartTime:      &now,
			QueueEndTime:        &now,
			LoadingStartTime:    &now,
			TargetWeight:        targetPerActivity,
			EstimatedFuel:       estimateFuel(truck, excavator, activityExcavatorID != nil, targetPerActivity, distance),
		}

		if err := tx.Create(&activity).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		if err := claimTruck(tx, truckID, operatorID); err != nil {
			tx.Rollback()
			return &BatchResult{Warnings: warnings}, err
		}
		if activityExcavatorID != nil {
			if err := claimExcavator(tx, *activityExcavatorID); err != nil {
				tx.Rollback()
				return &BatchResult{Warnings: warnings}, err
			}
		}
		created = append(created, activity)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &BatchResult{
		CreatedCount:      len(created),
		CreatedActivities: created,
		Warnings:          warnings,
	}, nil
}

// estimateFuel applies the dispatch fuel model: a round trip for the
// truck plus the excavator's burn over the estimated loading window
func estimateFuel(truck *Models.Truck, excavator *Models.Excavator, excavatorAssigned bool, targetWeight, distance float64) float64 {
	fuel := distance * 2 * truck.FuelRatePerKm
	if excavatorAssigned && excavator.ProductionRate > 0 {
		estimatedLoadingHours := targetWeight / excavator.ProductionRate / 60
		fuel += estimatedLoadingHours * excavator.FuelRatePerHour
	}
	return fuel
}

// claimTruck flips the truck to LOADING only if it is still claimable,
// so two racing batches cannot both take it
func claimTruck(tx *gorm.DB, truckID, operatorID uint) error {
	result := tx.Model(&Models.Truck{}).
		Where("id = ? AND is_active = ? AND status IN ?", truckID, true, Models.AvailableTruckStatuses).
		Updates(map[string]interface{}{
			"status":              Models.StatusLoading,
			"current_operator_id": operatorID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: truck %d was claimed concurrently", Hauling.ErrTruckUnavailable, truckID)
	}
	return nil
}

// claimExcavator marks the excavator ACTIVE; ACTIVE stays claimable so
// one excavator can serve several trucks in the same batch
func claimExcavator(tx *gorm.DB, excavatorID uint) error {
	result := tx.Model(&Models.Excavator{}).
		Where("id = ? AND is_active = ? AND status IN ?", excavatorID, true, Models.AvailableExcavatorStatuses).
		Update("status", Models.StatusActive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: excavator %d was claimed concurrently", Hauling.ErrExcavatorUnavailable, excavatorID)
	}
	return nil
}

func loadTrucks(tx *gorm.DB, ids []uint) (map[uint]*Models.Truck, error) {
	var trucks []Models.Truck
	if err := tx.Where("id IN ?", ids).Find(&trucks).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*Models.Truck, len(trucks))
	for i := range trucks {
		byID[trucks[i].ID] = &trucks[i]
	}
	return byID, nil
}

func loadExcavators(tx *gorm.DB, ids []uint) (map[uint]*Models.Excavator, error) {
	var excavators []Models.Excavator
	if err := tx.Where("id IN ?", ids).Find(&excavators).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*Models.Excavator, len(excavators))
	for i := range excavators {
		byID[excavators[i].ID] = &excavators[i]
	}
	return byID, nil
}
