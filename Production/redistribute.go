package Production

import (
	"fmt"

	"Basalt/Models"

	"gorm.io/gorm"
)

// distributeEven splits total into n two-decimal shares whose sum is
// exactly total, pushing the rounding residue onto the last share
func distributeEven(total float64, n int) []float64 {
	shares := make([]float64, n)
	if n == 0 {
		return shares
	}
	even := round2(total / float64(n))
	running := 0.0
	for i := 0; i < n-1; i++ {
		shares[i] = even
		running += even
	}
	shares[n-1] = round2(total - running)
	return shares
}

// scaleTo scales weights proportionally so they sum exactly to total,
// same last-element correction
func scaleTo(weights []float64, total float64) []float64 {
	n := len(weights)
	scaled := make([]float64, n)
	if n == 0 {
		return scaled
	}
	base := 0.0
	for _, w := range weights {
		base += w
	}
	if base == 0 {
		return distributeEven(total, n)
	}
	scale := total / base
	running := 0.0
	for i := 0; i < n-1; i++ {
		scaled[i] = round2(weights[i] * scale)
		running += scaled[i]
	}
	scaled[n-1] = round2(total - running)
	return scaled
}

// RedistributeTargets rewrites each linked activity's target weight so the
// set sums exactly to the new aggregate target. Completed activities keep
// their realized load as a frozen target; the remainder is spread evenly
// over the activities still in flight.
func RedistributeTargets(db *gorm.DB, recordID uint, newTarget float64) error {
	if newTarget < 0 {
		return fmt.Errorf("target production must not be negative, got %.2f", newTarget)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var record Models.ProductionRecord
	if err := tx.First(&record, recordID).Error; err != nil {
		tx.Rollback()
		return err
	}

	activities, err := fetchLinkedActivities(tx, &record)
	if err != nil {
		tx.Rollback()
		return err
	}

	targets := computeTargets(activities, newTarget)
	for i := range activities {
		if err := writeTarget(tx, &activities[i], targets[i]); err != nil {
			tx.Rollback()
			return err
		}
	}

	totalLoad := 0.0
	for _, activity := range activities {
		totalLoad += activity.LoadWeight
	}
	achievement := 0.0
	if newTarget > 0 {
		achievement = totalLoad / newTarget * 100
	}
	if err := tx.Model(&record).Updates(map[string]interface{}{
		"target_production": newTarget,
		"actual_production": totalLoad,
		"achievement":       achievement,
	}).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// computeTargets implements the redistribution rules. The result slice is
// index-aligned with activities and always sums to target exactly at two
// decimals.
func computeTargets(activities []Models.HaulingActivity, target float64) []float64 {
	n := len(activities)
	targets := make([]float64, n)
	if n == 0 {
		return targets
	}

	realizedTotal := 0.0
	for _, activity := range activities {
		realizedTotal += activity.LoadWeight
	}

	// Realized load already covers the target: scale every realized load
	// down proportionally
	if realizedTotal >= target && realizedTotal > 0 {
		loads := make([]float64, n)
		for i, activity := range activities {
			loads[i] = activity.LoadWeight
		}
		return scaleTo(loads, target)
	}

	completedIdx := make([]int, 0, n)
	openIdx := make([]int, 0, n)
	completedSum := 0.0
	for i, activity := range activities {
		if activity.Status == Models.ActivityCompleted {
			completedIdx = append(completedIdx, i)
			completedSum += activity.LoadWeight
		} else {
			openIdx = append(openIdx, i)
		}
	}

	// Completed targets freeze at their realized load
	for _, i := range completedIdx {
		targets[i] = round2(activities[i].LoadWeight)
	}

	if len(openIdx) > 0 {
		shares := distributeEven(target-completedSum, len(openIdx))
		for k, i := range openIdx {
			targets[i] = shares[k]
		}
		return targets
	}

	// Everything is completed but the realized sum is short of the
	// target: scale the completed targets up proportionally
	loads := make([]float64, len(completedIdx))
	for k, i := range completedIdx {
		loads[k] = activities[i].LoadWeight
	}
	scaled := scaleTo(loads, target)
	for k, i := range completedIdx {
		targets[i] = scaled[k]
	}
	return targets
}

func writeTarget(tx *gorm.DB, activity *Models.HaulingActivity, target float64) error {
	updates := map[string]interface{}{"target_weight": target}
	if target > 0 {
		updates["load_efficiency"] = activity.LoadWeight / target * 100
	}
	return tx.Model(activity).Updates(updates).Error
}
