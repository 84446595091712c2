package Models

import (
	"gorm.io/gorm"
)

// Operator statuses
const (
	OperatorActive   = "ACTIVE"
	OperatorOnLeave  = "ON_LEAVE"
	OperatorSick     = "SICK"
	OperatorInactive = "INACTIVE"
)

// License classes. Trucks accept either truck class, excavators require
// the heavy-equipment class.
const (
	LicenseTruck          = "TRUCK"
	LicenseTruckTrailer   = "TRUCK_TRAILER"
	LicenseHeavyEquipment = "HEAVY_EQUIPMENT"
)

// TruckLicenses lists the classes that qualify an operator to drive a truck
var TruckLicenses = []string{LicenseTruck, LicenseTruckTrailer}

// Shifts are the three fixed 8-hour operating windows per day
const (
	Shift1 = "SHIFT_1"
	Shift2 = "SHIFT_2"
	Shift3 = "SHIFT_3"
)

type Operator struct {
	gorm.Model
	Code string `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	Name string `json:"name" gorm:"type:varchar(100);not null"`

	LicenseType string `json:"license_type" gorm:"type:varchar(30);not null"`
	Status      string `json:"status" gorm:"default:'ACTIVE';type:varchar(20)"`

	// Preferred shift; empty means no affinity
	Shift  string  `json:"shift" gorm:"type:varchar(20)"`
	Rating float64 `json:"rating" gorm:"default:5.0"`
}

func (Operator) TableName() string {
	return "operators"
}

// CanDriveTruck reports whether the operator holds a truck-class license
func (o *Operator) CanDriveTruck() bool {
	for _, l := range TruckLicenses {
		if o.LicenseType == l {
			return true
		}
	}
	return false
}

// CanOperateExcavator reports whether the operator holds the
// heavy-equipment license
func (o *Operator) CanOperateExcavator() bool {
	return o.LicenseType == LicenseHeavyEquipment
}
