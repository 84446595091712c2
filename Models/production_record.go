package Models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EquipmentAllocation is the JSON document embedded in a production record.
// External reporting tooling reads this layout, keep it stable.
type EquipmentAllocation struct {
	HaulingActivityIDs []uint `json:"hauling_activity_ids"`
	TruckCount         int    `json:"truck_count"`
	ExcavatorCount     int    `json:"excavator_count"`
}

// ProductionRecord is one row per (record date, shift, mining site).
// ActualProduction and Achievement are derived from the linked hauling
// activities, never written by hand.
type ProductionRecord struct {
	gorm.Model

	RecordDate   string `json:"record_date" gorm:"uniqueIndex:idx_record_date_shift_site;type:varchar(10);not null"`
	Shift        string `json:"shift" gorm:"uniqueIndex:idx_record_date_shift_site;type:varchar(20);not null"`
	MiningSiteID uint   `json:"mining_site_id" gorm:"uniqueIndex:idx_record_date_shift_site;not null"`

	TargetProduction float64 `json:"target_production"`
	ActualProduction float64 `json:"actual_production"`
	Achievement      float64 `json:"achievement"`

	EquipmentAllocation datatypes.JSON `json:"equipment_allocation"`
}

func (ProductionRecord) TableName() string {
	return "production_records"
}

// Allocation decodes the embedded allocation document. A missing or
// malformed document yields an empty allocation rather than an error,
// reconciliation tolerates stale data here.
func (r *ProductionRecord) Allocation() EquipmentAllocation {
	var alloc EquipmentAllocation
	if len(r.EquipmentAllocation) == 0 {
		return alloc
	}
	if err := json.Unmarshal(r.EquipmentAllocation, &alloc); err != nil {
		return EquipmentAllocation{}
	}
	return alloc
}

// SetAllocation encodes and stores the allocation document
func (r *ProductionRecord) SetAllocation(alloc EquipmentAllocation) error {
	raw, err := json.Marshal(alloc)
	if err != nil {
		return err
	}
	r.EquipmentAllocation = datatypes.JSON(raw)
	return nil
}

// LinkedActivityIDs returns the hauling activity IDs linked to this record
func (r *ProductionRecord) LinkedActivityIDs() []uint {
	return r.Allocation().HaulingActivityIDs
}
