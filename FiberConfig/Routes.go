package FiberConfig

import (
	"log"
	"os"

	"Basalt/Allocation"
	"Basalt/Controllers"
	"Basalt/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	equipmentHandler := Controllers.NewEquipmentHandler(db)
	haulingHandler := Controllers.NewHaulingHandler(db)
	productionHandler := Controllers.NewProductionHandler(db)
	allocationHandler := Allocation.NewHandler(db)

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/login", Controllers.Login)
	api.Post("/logout", Controllers.Logout)
	api.Post("/register", middleware.Verify(3), Controllers.Register)
	api.Get("/me", middleware.Verify(1), Controllers.Me)

	// Equipment registry routes
	trucks := api.Group("/trucks", middleware.Verify(1))
	trucks.Get("/", equipmentHandler.GetTrucks)
	trucks.Get("/:id", equipmentHandler.GetTruck)

	excavators := api.Group("/excavators", middleware.Verify(1))
	excavators.Get("/", equipmentHandler.GetExcavators)
	excavators.Get("/:id", equipmentHandler.GetExcavator)

	operators := api.Group("/operators", middleware.Verify(1))
	operators.Get("/", equipmentHandler.GetOperators)
	operators.Get("/:id", equipmentHandler.GetOperator)

	api.Get("/fleet/summary", middleware.Verify(1), equipmentHandler.GetFleetSummary)
	api.Get("/delay-reasons", middleware.Verify(1), equipmentHandler.GetDelayReasons)

	// Hauling activity routes
	hauling := api.Group("/hauling", middleware.Verify(1))
	hauling.Post("/recommendation", middleware.Verify(2), allocationHandler.ApplyRecommendation)
	hauling.Get("/", haulingHandler.GetActivities)
	hauling.Post("/", middleware.Verify(2), haulingHandler.CreateActivity)
	hauling.Get("/:id", haulingHandler.GetActivity)
	hauling.Put("/:id", middleware.Verify(2), haulingHandler.UpdateActivity)
	hauling.Post("/:id/start-loading", middleware.Verify(2), haulingHandler.StartLoading)
	hauling.Post("/:id/complete-loading", middleware.Verify(2), haulingHandler.CompleteLoading)
	hauling.Post("/:id/complete-dumping", middleware.Verify(2), haulingHandler.CompleteDumping)
	hauling.Post("/:id/complete", middleware.Verify(2), haulingHandler.Complete)
	hauling.Post("/:id/cancel", middleware.Verify(2), haulingHandler.Cancel)
	hauling.Post("/:id/delay", middleware.Verify(2), haulingHandler.AddDelay)

	// Production record routes - fixed paths before the ID routes
	production := api.Group("/production", middleware.Verify(1))
	production.Get("/export", middleware.Verify(3), productionHandler.Export)
	production.Post("/sync", middleware.Verify(2), productionHandler.Sync)
	production.Get("/", productionHandler.GetRecords)
	production.Get("/:id", productionHandler.GetRecord)
	production.Post("/:id/reconcile", middleware.Verify(2), productionHandler.Reconcile)
	production.Post("/:id/redistribute", middleware.Verify(2), productionHandler.Redistribute)
}

func FiberConfig(db *gorm.DB) {
	log.Println("Server Up...")
	app := fiber.New()

	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,
	}))

	SetupRoutes(app, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Fatal(app.Listen(":" + port))
}
