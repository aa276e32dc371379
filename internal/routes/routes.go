package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "github.com/khiari-mohamed/ARS-sub010/internal/handlers"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/adherent"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/ingestion"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/lifecycle"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/notification"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/sla"
)

// Services groups what main wires once and the routes consume.
type Services struct {
	Ingestion *ingestion.Service
	Lifecycle *lifecycle.Service
	Sla       *sla.Service
	Adherent  *adherent.Service
	Registry  *bankformat.Registry
	Ordres    *repository.OrdreVirementRepository
	Donneurs  *repository.DonneurOrdreRepository
}

// BuildServices constructs the repositories and services on one DB
// handle.
func BuildServices(db *gorm.DB) *Services {
	adherentRepo := repository.NewAdherentRepository(db)
	ordreRepo := repository.NewOrdreVirementRepository(db)
	donneurRepo := repository.NewDonneurOrdreRepository(db)
	registry := bankformat.NewRegistry()
	notifier := notification.NewService(db)

	return &Services{
		Ingestion: ingestion.NewService(adherentRepo, ordreRepo, donneurRepo, registry, notifier),
		Lifecycle: lifecycle.NewService(ordreRepo, notifier),
		Sla:       sla.NewService(db, ordreRepo, notifier),
		Adherent:  adherent.NewService(adherentRepo, notifier),
		Registry:  registry,
		Ordres:    ordreRepo,
		Donneurs:  donneurRepo,
	}
}

func RegisterRoutes(r *gin.Engine, s *Services) {
	financeHandler := handler.NewFinanceHandler(s.Ingestion, s.Lifecycle, s.Sla, s.Ordres, s.Registry)
	adherentHandler := handler.NewAdherentHandler(s.Adherent, s.Donneurs)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	finance := api.Group("/finance")
	finance.POST("/ordres-virement/reconcile", financeHandler.Reconcile)
	finance.POST("/ordres-virement", financeHandler.Create)
	finance.GET("/ordres-virement", financeHandler.List)
	finance.GET("/ordres-virement/:id", financeHandler.Get)
	finance.PATCH("/ordres-virement/:id/etat", financeHandler.UpdateEtat)
	finance.GET("/ordres-virement/:id/sla", financeHandler.GetSla)
	finance.GET("/ordres-virement/:id/fichier", financeHandler.Download)
	finance.GET("/ordres-virement/:id/encode", financeHandler.Encode)
	finance.POST("/decode", financeHandler.DecodePreview)
	finance.GET("/formats", financeHandler.ListFormats)
	finance.POST("/formats/validate", financeHandler.ValidateFormat)

	adherents := api.Group("/adherents")
	adherents.GET("", adherentHandler.Search)
	adherents.POST("", adherentHandler.Create)
	adherents.GET("/resolve/:matricule", adherentHandler.Resolve)
	adherents.POST("/import", adherentHandler.Import)
	adherents.PUT("/:id", adherentHandler.Update)
	adherents.DELETE("/:id", adherentHandler.Delete)
	adherents.GET("/:id/rib-history", adherentHandler.RibHistory)

	donneurs := api.Group("/donneurs")
	donneurs.GET("", adherentHandler.ListDonneurs)
	donneurs.POST("", adherentHandler.CreateDonneur)
	donneurs.PUT("/:id", adherentHandler.UpdateDonneur)
	donneurs.DELETE("/:id", adherentHandler.DeleteDonneur)
}
