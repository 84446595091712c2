package Models

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = connection

	// 1. Base tables with no dependencies
	DB.AutoMigrate(
		&User{},
		&MiningSite{},
		&DelayReason{},
		&Truck{},
		&Excavator{},
		&Operator{},
	)

	// 2. Site children
	DB.AutoMigrate(
		&LoadingPoint{},
		&DumpingPoint{},
		&RoadSegment{},
	)

	// 3. Tables referencing equipment, operators and sites
	DB.AutoMigrate(
		&HaulingActivity{},
		&ProductionRecord{},
	)

	seedAdmin()
}

// seedAdmin creates the bootstrap admin account on an empty users table
func seedAdmin() {
	var count int64
	DB.Model(&User{}).Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	passwordByte, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Failed to hash admin password:", err)
		return
	}

	admin := User{
		Name:       "admin",
		Email:      "admin",
		Password:   passwordByte,
		Permission: 3,
		IsApproved: 1,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Println("Failed to seed admin user:", err)
	}
}
