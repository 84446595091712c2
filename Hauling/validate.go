package Hauling

import (
	"fmt"

	"Basalt/Models"

	"gorm.io/gorm"
)

// TruckStatusForActivity maps an activity status to the truck status
// mirrored onto the truck record. RETURNING trucks are physically still
// hauling; terminal activities release the truck to IDLE.
func TruckStatusForActivity(status string) (string, bool) {
	switch status {
	case Models.ActivityInQueue:
		return Models.StatusInQueue, true
	case Models.ActivityLoading:
		return Models.StatusLoading, true
	case Models.ActivityHauling, Models.ActivityReturning:
		return Models.StatusHauling, true
	case Models.ActivityDumping:
		return Models.StatusDumping, true
	case Models.ActivityCompleted, Models.ActivityCancelled:
		return Models.StatusIdle, true
	}
	return "", false
}

// TruckBusy reports whether the truck is already the equipment of a live
// activity other than excludeActivityID
func TruckBusy(tx *gorm.DB, truckID uint, excludeActivityID uint) (bool, error) {
	var count int64
	err := tx.Model(&Models.HaulingActivity{}).
		Where("truck_id = ? AND id <> ? AND status IN ?", truckID, excludeActivityID, Models.ActiveActivityStatuses).
		Count(&count).Error
	return count > 0, err
}

// OperatorBusy reports whether the operator is the driver or excavator
// operator of a live activity other than excludeActivityID
func OperatorBusy(tx *gorm.DB, operatorID uint, excludeActivityID uint) (bool, error) {
	var count int64
	err := tx.Model(&Models.HaulingActivity{}).
		Where("(operator_id = ? OR excavator_operator_id = ?) AND id <> ? AND status IN ?",
			operatorID, operatorID, excludeActivityID, Models.ActiveActivityStatuses).
		Count(&count).Error
	return count > 0, err
}

// ExcavatorInUseElsewhere reports whether another live activity still
// references the excavator. Used to guard the STANDBY reset on completion
// and cancellation, one excavator may serve several trucks at once.
func ExcavatorInUseElsewhere(tx *gorm.DB, excavatorID uint, excludeActivityID uint) (bool, error) {
	var count int64
	err := tx.Model(&Models.HaulingActivity{}).
		Where("excavator_id = ? AND id <> ? AND status IN ?", excavatorID, excludeActivityID, Models.ActiveActivityStatuses).
		Count(&count).Error
	return count > 0, err
}

// ValidateTruckAssignment checks existence, active flag and exclusivity for
// a truck being attached to the given activity
func ValidateTruckAssignment(tx *gorm.DB, truckID uint, activityID uint) error {
	var truck Models.Truck
	if err := tx.First(&truck, truckID).Error; err != nil {
		return err
	}
	if !truck.IsActive {
		return fmt.Errorf("%w: truck %s is inactive", ErrTruckUnavailable, truck.Code)
	}
	busy, err := TruckBusy(tx, truckID, activityID)
	if err != nil {
		return err
	}
	if busy {
		return fmt.Errorf("%w: truck %s is already on an active haul", ErrTruckUnavailable, truck.Code)
	}
	return nil
}

// ValidateOperatorAssignment checks status, license class and exclusivity
// for an operator. forExcavator selects the heavy-equipment license check.
func ValidateOperatorAssignment(tx *gorm.DB, operatorID uint, activityID uint, forExcavator bool) error {
	var operator Models.Operator
	if err := tx.First(&operator, operatorID).Error; err != nil {
		return err
	}
	if operator.Status != Models.OperatorActive {
		return fmt.Errorf("%w: operator %s has status %s", ErrOperatorUnavailable, operator.Name, operator.Status)
	}
	if forExcavator && !operator.CanOperateExcavator() {
		return fmt.Errorf("%w: operator %s holds %s, excavator requires %s",
			ErrLicenseMismatch, operator.Name, operator.LicenseType, Models.LicenseHeavyEquipment)
	}
	if !forExcavator && !operator.CanDriveTruck() {
		return fmt.Errorf("%w: operator %s holds %s, truck requires a truck class",
			ErrLicenseMismatch, operator.Name, operator.LicenseType)
	}
	busy, err := OperatorBusy(tx, operatorID, activityID)
	if err != nil {
		return err
	}
	if busy {
		return fmt.Errorf("%w: operator %s is already on an active haul", ErrOperatorUnavailable, operator.Name)
	}
	return nil
}

// ValidateExcavatorAssignment checks existence and the active flag. An
// excavator may be shared between concurrent activities so there is no
// exclusivity check here.
func ValidateExcavatorAssignment(tx *gorm.DB, excavatorID uint) error {
	var excavator Models.Excavator
	if err := tx.First(&excavator, excavatorID).Error; err != nil {
		return err
	}
	if !excavator.IsActive {
		return fmt.Errorf("%w: excavator %s is inactive", ErrExcavatorUnavailable, excavator.Code)
	}
	return nil
}
