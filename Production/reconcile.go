package Production

import (
	"log"
	"math"

	"Basalt/Models"

	"gorm.io/gorm"
)

// epsilon guards derived-field writes against floating point noise
const epsilon = 0.01

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fetchLinkedActivities loads the activities behind a record's embedded ID
// list. Stale or missing IDs are silently dropped, the list has no foreign
// key backing it.
func fetchLinkedActivities(db *gorm.DB, record *Models.ProductionRecord) ([]Models.HaulingActivity, error) {
	ids := record.LinkedActivityIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	var activities []Models.HaulingActivity
	if err := db.Where("id IN ?", ids).Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// ReconcileRecord recomputes a record's actual production and achievement
// from its linked activities, writing only when the stored values drifted
// beyond the epsilon
func ReconcileRecord(db *gorm.DB, recordID uint) error {
	var record Models.ProductionRecord
	if err := db.First(&record, recordID).Error; err != nil {
		return err
	}

	activities, err := fetchLinkedActivities(db, &record)
	if err != nil {
		return err
	}

	totalLoadWeight := 0.0
	for _, activity := range activities {
		totalLoadWeight += activity.LoadWeight
	}

	achievement := 0.0
	if record.TargetProduction > 0 {
		achievement = totalLoadWeight / record.TargetProduction * 100
	}

	if math.Abs(record.ActualProduction-totalLoadWeight) < epsilon &&
		math.Abs(record.Achievement-achievement) < epsilon {
		return nil
	}

	return db.Model(&record).Updates(map[string]interface{}{
		"actual_production": totalLoadWeight,
		"achievement":       achievement,
	}).Error
}

// ReconcileActivity re-runs reconciliation for every production record
// whose embedded list references the activity. The list is a JSON
// document, not a join table, so the scan walks all records.
func ReconcileActivity(db *gorm.DB, activityID uint) error {
	var records []Models.ProductionRecord
	if err := db.Find(&records).Error; err != nil {
		return err
	}
	for i := range records {
		for _, id := range records[i].LinkedActivityIDs() {
			if id == activityID {
				if err := ReconcileRecord(db, records[i].ID); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// SyncAll sweeps every production record through reconciliation and
// returns how many were touched. Mismatches are repaired silently, this
// is the scheduled consistency path.
func SyncAll(db *gorm.DB) (int, error) {
	var records []Models.ProductionRecord
	if err := db.Find(&records).Error; err != nil {
		return 0, err
	}
	repaired := 0
	for i := range records {
		before := records[i].ActualProduction
		if err := ReconcileRecord(db, records[i].ID); err != nil {
			log.Printf("Sync of production record %d failed: %v", records[i].ID, err)
			continue
		}
		var after Models.ProductionRecord
		if err := db.First(&after, records[i].ID).Error; err == nil {
			if math.Abs(after.ActualProduction-before) >= epsilon {
				repaired++
			}
		}
	}
	return repaired, nil
}
