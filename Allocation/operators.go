package Allocation

import (
	"fmt"
	"sort"

	"Basalt/Hauling"
	"Basalt/Models"

	"gorm.io/gorm"
)

// AllocateTruckOperators picks one unique driver per truck. Explicitly
// requested operators are honored first (duplicates and unusable ones are
// skipped with a warning), then ACTIVE truck-licensed operators fill the
// rest, shift-matching ones before others, by rating descending. Fewer
// drivers than trucks is the one hard stop of the batch.
func AllocateTruckOperators(tx *gorm.DB, requestedIDs []uint, required int, shift string, taken map[uint]bool) ([]uint, []string, error) {
	var warnings []string
	selected := make([]uint, 0, required)

	for _, id := range requestedIDs {
		if len(selected) == required {
			break
		}
		if taken[id] {
			continue
		}
		if err := Hauling.ValidateOperatorAssignment(tx, id, 0, false); err != nil {
			if err == gorm.ErrRecordNotFound {
				warnings = append(warnings, fmt.Sprintf("operator %d not found, skipped", id))
			} else {
				warnings = append(warnings, fmt.Sprintf("requested operator skipped: %v", err))
			}
			continue
		}
		taken[id] = true
		selected = append(selected, id)
	}

	if len(selected) < required {
		candidates, err := rankedOperators(tx, Models.TruckLicenses, shift, taken)
		if err != nil {
			return nil, nil, err
		}
		for _, candidate := range candidates {
			if len(selected) == required {
				break
			}
			busy, err := Hauling.OperatorBusy(tx, candidate.ID, 0)
			if err != nil {
				return nil, nil, err
			}
			if busy {
				continue
			}
			taken[candidate.ID] = true
			selected = append(selected, candidate.ID)
		}
	}

	if len(selected) < required {
		return nil, warnings, fmt.Errorf("%w: %d trucks need drivers, %d found",
			ErrNotEnoughOperators, required, len(selected))
	}
	return selected, warnings, nil
}

// AllocateExcavatorOperators builds the heavy-equipment operator pool for
// the batch. Shift-matching operators are preferred but any available
// licensed operator is accepted rather than leaving an excavator
// driverless. The pool may come back short or empty; the caller then
// creates those activities without an excavator.
func AllocateExcavatorOperators(tx *gorm.DB, required int, shift string, taken map[uint]bool) ([]uint, []string, error) {
	var warnings []string
	selected := make([]uint, 0, required)

	candidates, err := rankedOperators(tx, []string{Models.LicenseHeavyEquipment}, shift, taken)
	if err != nil {
		return nil, nil, err
	}
	for _, candidate := range candidates {
		if len(selected) == required {
			break
		}
		busy, err := Hauling.OperatorBusy(tx, candidate.ID, 0)
		if err != nil {
			return nil, nil, err
		}
		if busy {
			continue
		}
		taken[candidate.ID] = true
		selected = append(selected, candidate.ID)
	}

	if len(selected) < required {
		warnings = append(warnings, fmt.Sprintf("only %d of %d excavator operators available", len(selected), required))
	}
	return selected, warnings, nil
}

// rankedOperators returns ACTIVE operators holding one of the given
// licenses, shift matches first, then rating descending
func rankedOperators(tx *gorm.DB, licenses []string, shift string, taken map[uint]bool) ([]Models.Operator, error) {
	query := tx.Where("status = ? AND license_type IN ?", Models.OperatorActive, licenses)
	if len(taken) > 0 {
		excluded := make([]uint, 0, len(taken))
		for id := range taken {
			excluded = append(excluded, id)
		}
		query = query.Where("id NOT IN ?", excluded)
	}

	var operators []Models.Operator
	if err := query.Find(&operators).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(operators, func(i, j int) bool {
		iMatch := shift != "" && operators[i].Shift == shift
		jMatch := shift != "" && operators[j].Shift == shift
		if iMatch != jMatch {
			return iMatch
		}
		return operators[i].Rating > operators[j].Rating
	})
	return operators, nil
}

// pickBalanced returns the pool member with the fewest assignments so far
// in this batch, a linear min scan over the tally
func pickBalanced(pool []uint, tally map[uint]int) uint {
	best := pool[0]
	for _, id := range pool[1:] {
		if tally[id] < tally[best] {
			best = id
		}
	}
	return best
}
