package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/ingestion"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/lifecycle"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/sla"
)

type FinanceHandler struct {
	ingestion *ingestion.Service
	lifecycle *lifecycle.Service
	sla       *sla.Service
	ordres    *repository.OrdreVirementRepository
	registry  *bankformat.Registry
}

func NewFinanceHandler(
	ing *ingestion.Service,
	lc *lifecycle.Service,
	slaSvc *sla.Service,
	ordres *repository.OrdreVirementRepository,
	registry *bankformat.Registry,
) *FinanceHandler {
	return &FinanceHandler{
		ingestion: ing,
		lifecycle: lc,
		sla:       slaSvc,
		ordres:    ordres,
		registry:  registry,
	}
}

func readUpload(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return "", nil, false
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return "", nil, false
	}
	return header.Filename, content, true
}

// Reconcile previews an upload without creating anything.
func (h *FinanceHandler) Reconcile(c *gin.Context) {
	filename, content, ok := readUpload(c)
	if !ok {
		return
	}

	clientID := uuid.Nil
	if raw := c.PostForm("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
			return
		}
		clientID = id
	}

	res, err := h.ingestion.ReconcileFile(filename, content, clientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create reconciles an upload and persists the resulting batch.
func (h *FinanceHandler) Create(c *gin.Context) {
	filename, content, ok := readUpload(c)
	if !ok {
		return
	}

	donneurID, err := uuid.Parse(c.PostForm("donneur_ordre_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donneur d'ordre ID"})
		return
	}
	clientID := uuid.Nil
	if raw := c.PostForm("client_id"); raw != "" {
		if clientID, err = uuid.Parse(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
			return
		}
	}
	var bordereauID *uuid.UUID
	if raw := c.PostForm("bordereau_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bordereau ID"})
			return
		}
		bordereauID = &id
	}

	res, err := h.ingestion.ReconcileFile(filename, content, clientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ov, err := h.ingestion.CreateOrdreVirement(ingestion.CreateInput{
		DonneurOrdreID: donneurID,
		BordereauID:    bordereauID,
		Utilisateur:    c.PostForm("utilisateur"),
		Result:         res,
	})
	if err != nil {
		if errors.Is(err, ingestion.ErrNoValidLines) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "result": res})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "ordre de virement created",
		"ordre":   ov,
		"result":  res,
	})
}

// List returns batches, optionally filtered.
func (h *FinanceHandler) List(c *gin.Context) {
	if reference := c.Query("reference"); reference != "" {
		ov, err := h.ordres.GetByReference(reference)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ordre de virement introuvable"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": []*models.OrdreVirement{ov}, "count": 1})
		return
	}

	filters := repository.ListFilters{EtatVirement: c.Query("etat")}
	if raw := c.Query("donneur_ordre_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donneur d'ordre ID"})
			return
		}
		filters.DonneurOrdreID = &id
	}
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{{"date_start", &filters.DateStart}, {"date_end", &filters.DateEnd}} {
		if raw := c.Query(q.name); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + q.name + ", expected yyyy-mm-dd"})
				return
			}
			*q.dst = &t
		}
	}

	ordres, err := h.ordres.List(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ordres, "count": len(ordres)})
}

func (h *FinanceHandler) ordreID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ordre ID"})
		return uuid.Nil, false
	}
	return id, true
}

// Get returns one batch with its items and history.
func (h *FinanceHandler) Get(c *gin.Context) {
	id, ok := h.ordreID(c)
	if !ok {
		return
	}

	ov, err := h.ordres.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ordre de virement not found"})
		return
	}
	historique, err := h.ordres.Historique(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ordre": ov, "historique": historique})
}

// UpdateEtat transitions a batch.
func (h *FinanceHandler) UpdateEtat(c *gin.Context) {
	id, ok := h.ordreID(c)
	if !ok {
		return
	}

	var payload struct {
		Etat        string `json:"etat"`
		Utilisateur string `json:"utilisateur"`
		Commentaire string `json:"commentaire"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ov, err := h.lifecycle.Transition(id, lifecycle.TransitionInput{
		NouvelEtat:  models.EtatVirement(payload.Etat),
		Utilisateur: payload.Utilisateur,
		Commentaire: payload.Commentaire,
	})
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrUnknownEtat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "etats": lifecycle.Etats()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "etat updated", "ordre": ov})
	}
}

// GetSla evaluates a batch against its SLA thresholds.
func (h *FinanceHandler) GetSla(c *gin.Context) {
	id, ok := h.ordreID(c)
	if !ok {
		return
	}
	check, err := h.sla.CheckBatch(id)
	if errors.Is(err, sla.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, check)
}

// Download serves the generated bank file.
func (h *FinanceHandler) Download(c *gin.Context) {
	id, ok := h.ordreID(c)
	if !ok {
		return
	}
	ov, err := h.ordres.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ordre de virement not found"})
		return
	}
	if ov.FichierTxt == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no file generated for this ordre"})
		return
	}
	c.FileAttachment(ov.FichierTxt, ov.Reference+".txt")
}

// Encode re-encodes a stored batch in the requested format and serves
// the result, without touching the stored file.
func (h *FinanceHandler) Encode(c *gin.Context) {
	id, ok := h.ordreID(c)
	if !ok {
		return
	}
	ov, err := h.ordres.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ordre de virement not found"})
		return
	}
	if ov.DonneurOrdre == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ordre has no donneur d'ordre"})
		return
	}

	profile, found := h.registry.GetProfile(c.Query("format"))
	if !found {
		profile = h.registry.ProfileForDonneur(ov.DonneurOrdre.FormatTxtType, ov.DonneurOrdre.RIB)
	}

	batch := bankformat.Batch{
		Reference:    ov.Reference,
		DateCreation: ov.DateCreation,
		DonneurNom:   ov.DonneurOrdre.Nom,
		DonneurRIB:   ov.DonneurOrdre.RIB,
	}
	for _, item := range ov.Items {
		if item.Statut != models.StatutItemValide || item.Adherent == nil {
			continue
		}
		batch.Virements = append(batch.Virements, bankformat.Virement{
			Matricule: item.Adherent.Matricule,
			Nom:       item.Adherent.Nom,
			Prenom:    item.Adherent.Prenom,
			RIB:       item.Adherent.RIB,
			Montant:   item.Montant,
		})
	}

	content, err := bankformat.Encode(profile, batch)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	filename := bankformat.FileName(ov.Reference, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// DecodePreview parses an uploaded fixed-width file without persisting
// anything.
func (h *FinanceHandler) DecodePreview(c *gin.Context) {
	_, content, ok := readUpload(c)
	if !ok {
		return
	}
	res, err := bankformat.Decode(string(content))
	if errors.Is(err, bankformat.ErrNotFixedWidth) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListFormats returns the bank format catalogue.
func (h *FinanceHandler) ListFormats(c *gin.Context) {
	profiles := h.registry.ListProfiles()
	out := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, gin.H{
			"id":        p.ID,
			"banque":    p.Banque,
			"bank_code": p.BankCode,
			"type":      p.Layout.Type,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// ValidateFormat checks a submitted layout spec and returns every
// problem found.
func (h *FinanceHandler) ValidateFormat(c *gin.Context) {
	var payload struct {
		Type string                `json:"type"`
		Spec bankformat.LayoutSpec `json:"spec"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	problems := bankformat.ValidateSpec(payload.Type, payload.Spec)
	c.JSON(http.StatusOK, gin.H{"valid": len(problems) == 0, "problems": problems})
}
