package main

import (
	"Basalt/CronJobs"
	"Basalt/FiberConfig"
	"Basalt/Models"
	"log"
	"os"
)

func main() {
	setupLogging()

	Models.Connect()

	sync := CronJobs.NewProductionSync(Models.DB, false)
	if err := sync.Start(os.Getenv("SYNC_SCHEDULE")); err != nil {
		log.Printf("Failed to start production sync: %v\n", err)
	}

	FiberConfig.FiberConfig(Models.DB)
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
