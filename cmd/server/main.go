package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		config.Logger().Info("no .env file found, relying on system env")
	}

	db := config.InitDB()

	if err := db.AutoMigrate(
		&models.Client{},
		&models.Bordereau{},
		&models.Adherent{},
		&models.AdherentRibHistory{},
		&models.DonneurOrdre{},
		&models.OrdreVirement{},
		&models.VirementItem{},
		&models.VirementHistorique{},
		&models.Notification{},
		&models.SlaConfiguration{},
	); err != nil {
		config.Logger().WithError(err).Fatal("migration failed")
	}

	services := routes.BuildServices(db)

	// Hourly SLA sweep over the pending batches.
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		sent, err := services.Sla.GenerateAlerts()
		if err != nil {
			config.Logger().WithError(err).Error("sla sweep failed")
			return
		}
		if sent > 0 {
			config.Logger().WithField("alerts", sent).Info("sla sweep done")
		}
	}); err != nil {
		config.Logger().WithError(err).Fatal("scheduling sla sweep failed")
	}
	c.Start()
	defer c.Stop()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, services)

	if err := r.Run(config.ServerAddr()); err != nil {
		config.Logger().WithError(err).Fatal("server stopped")
	}
}
