package Hauling

import (
	"fmt"
	"time"

	"Basalt/Models"

	"gorm.io/gorm"
)

// NextActivityNumber produces the next date-scoped sequence number in the
// HA-YYYYMMDD-NNN format. Must be called inside the transaction that
// creates the activity so concurrent batches cannot hand out the same
// number twice and then both commit.
func NextActivityNumber(tx *gorm.DB, date time.Time) (string, error) {
	prefix := "HA-" + date.Format("20060102")

	var count int64
	if err := tx.Model(&Models.HaulingActivity{}).
		Where("activity_number LIKE ?", prefix+"-%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%03d", prefix, count+1), nil
}
