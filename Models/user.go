package Models

import "time"

type User struct {
	Id         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `json:"name" gorm:"type:varchar(100)"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(100)"`
	Password   []byte    `json:"-"`
	Permission int       `json:"permission" gorm:"default:1"`
	IsApproved int       `json:"is_approved" gorm:"default:0"`
}

func (User) TableName() string {
	return "users"
}
