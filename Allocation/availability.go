package Allocation

import (
	"fmt"

	"Basalt/Models"

	"gorm.io/gorm"
)

// AvailabilityResult is the outcome of the availability filter: the final
// usable ID lists plus the audit trail of what diverged from the plan
type AvailabilityResult struct {
	TruckIDs     []uint
	ExcavatorIDs []uint
	Warnings     []string
}

// FilterAvailability partitions the candidate equipment into usable and
// busy/inactive, then backfills shortfalls from the registry ordered by
// capacity (trucks) or production rate (excavators) descending. Partial
// substitution is a warning, not an error; only an empty final list fails.
func FilterAvailability(db *gorm.DB, truckIDs, excavatorIDs []uint, requiredTrucks, requiredExcavators int) (*AvailabilityResult, error) {
	result := &AvailabilityResult{}

	trucks, warnings, err := filterTrucks(db, truckIDs, requiredTrucks)
	if err != nil {
		return nil, err
	}
	result.TruckIDs = trucks
	result.Warnings = append(result.Warnings, warnings...)

	excavators, warnings, err := filterExcavators(db, excavatorIDs, requiredExcavators)
	if err != nil {
		return nil, err
	}
	result.ExcavatorIDs = excavators
	result.Warnings = append(result.Warnings, warnings...)

	if len(result.TruckIDs) == 0 {
		return result, fmt.Errorf("%w: %d candidates checked", ErrNoTrucksAvailable, len(truckIDs))
	}
	if len(result.ExcavatorIDs) == 0 {
		return result, fmt.Errorf("%w: %d candidates checked", ErrNoExcavatorsAvailable, len(excavatorIDs))
	}
	return result, nil
}

func filterTrucks(db *gorm.DB, candidateIDs []uint, required int) ([]uint, []string, error) {
	var warnings []string
	selected := make([]uint, 0, required)
	seen := make(map[uint]bool)

	if len(candidateIDs) > 0 {
		var candidates []Models.Truck
		if err := db.Where("id IN ?", candidateIDs).Find(&candidates).Error; err != nil {
			return nil, nil, err
		}
		byID := make(map[uint]*Models.Truck, len(candidates))
		for i := range candidates {
			byID[candidates[i].ID] = &candidates[i]
		}
		for _, id := range candidateIDs {
			if seen[id] {
				continue
			}
			truck, ok := byID[id]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("truck %d not found, skipped", id))
				continue
			}
			if !truck.IsAllocatable() {
				warnings = append(warnings, fmt.Sprintf("truck %s is %s, skipped", truck.Code, truck.Status))
				continue
			}
			seen[id] = true
			selected = append(selected, id)
		}
	}

	if len(selected) < required {
		var substitutes []Models.Truck
		query := db.Where("is_active = ? AND status IN ?", true, Models.AvailableTruckStatuses).
			Order("capacity DESC")
		if len(seen) > 0 {
			query = query.Where("id NOT IN ?", keys(seen))
		}
		if err := query.Limit(required - len(selected)).Find(&substitutes).Error; err != nil {
			return nil, nil, err
		}
		for _, truck := range substitutes {
			seen[truck.ID] = true
			selected = append(selected, truck.ID)
			warnings = append(warnings, fmt.Sprintf("truck %s auto-substituted", truck.Code))
		}
	}
	return selected, warnings, nil
}

func filterExcavators(db *gorm.DB, candidateIDs []uint, required int) ([]uint, []string, error) {
	var warnings []string
	selected := make([]uint, 0, required)
	seen := make(map[uint]bool)

	if len(candidateIDs) > 0 {
		var candidates []Models.Excavator
		if err := db.Where("id IN ?", candidateIDs).Find(&candidates).Error; err != nil {
			return nil, nil, err
		}
		byID := make(map[uint]*Models.Excavator, len(candidates))
		for i := range candidates {
			byID[candidates[i].ID] = &candidates[i]
		}
		for _, id := range candidateIDs {
			if seen[id] {
				continue
			}
			excavator, ok := byID[id]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("excavator %d not found, skipped", id))
				continue
			}
			if !excavator.IsAllocatable() {
				warnings = append(warnings, fmt.Sprintf("excavator %s is %s, skipped", excavator.Code, excavator.Status))
				continue
			}
			seen[id] = true
			selected = append(selected, id)
		}
	}

	if len(selected) < required {
		var substitutes []Models.Excavator
		query := db.Where("is_active = ? AND status IN ?", true, Models.AvailableExcavatorStatuses).
			Order("production_rate DESC")
		if len(seen) > 0 {
			query = query.Where("id NOT IN ?", keys(seen))
		}
		if err := query.Limit(required - len(selected)).Find(&substitutes).Error; err != nil {
			return nil, nil, err
		}
		for _, excavator := range substitutes {
			seen[excavator.ID] = true
			selected = append(selected, excavator.ID)
			warnings = append(warnings, fmt.Sprintf("excavator %s auto-substituted", excavator.Code))
		}
	}
	return selected, warnings, nil
}

func keys(set map[uint]bool) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
