package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/adherent"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
)

type AdherentHandler struct {
	service  *adherent.Service
	donneurs *repository.DonneurOrdreRepository
}

func NewAdherentHandler(s *adherent.Service, donneurs *repository.DonneurOrdreRepository) *AdherentHandler {
	return &AdherentHandler{service: s, donneurs: donneurs}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// Search finds adherents by matricule, name or RIB fragment.
func (h *AdherentHandler) Search(c *gin.Context) {
	var clientID *uuid.UUID
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
			return
		}
		clientID = &id
	}

	entries, err := h.service.Search(c.Query("q"), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "count": len(entries)})
}

// Resolve looks one adherent up by matricule and client.
func (h *AdherentHandler) Resolve(c *gin.Context) {
	clientID, err := uuid.Parse(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
		return
	}
	a, err := h.service.Resolve(c.Param("matricule"), clientID)
	if errors.Is(err, adherent.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, a)
}

// Create registers an adherent, or returns the existing one for the
// same (matricule, client).
func (h *AdherentHandler) Create(c *gin.Context) {
	var payload struct {
		Matricule string `json:"matricule"`
		ClientID  string `json:"client_id"`
		Nom       string `json:"nom"`
		Prenom    string `json:"prenom"`
		RIB       string `json:"rib"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
		return
	}

	res, err := h.service.ResolveOrCreate(payload.Matricule, clientID, adherent.Candidate{
		Nom:    payload.Nom,
		Prenom: payload.Prenom,
		RIB:    payload.RIB,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	switch {
	case res.Unresolved:
		c.JSON(http.StatusBadRequest, gin.H{"error": "nom and a 20-digit RIB are required to create an adherent"})
	case res.Created:
		c.JSON(http.StatusCreated, gin.H{"message": "adherent created", "adherent": res.Adherent})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "matricule already exists for this client", "adherent": res.Adherent})
	}
}

// Update modifies an adherent; a RIB change is audited.
func (h *AdherentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload adherent.UpdateInput
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	payload.UpdatedBy = c.GetHeader("X-User")

	a, err := h.service.Update(id, payload)
	if errors.Is(err, adherent.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "adherent updated", "adherent": a})
}

// Import bulk-upserts adherents for one client.
func (h *AdherentHandler) Import(c *gin.Context) {
	var payload struct {
		ClientID string               `json:"client_id"`
		Rows     []adherent.ImportRow `json:"rows"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID"})
		return
	}

	res, err := h.service.Import(payload.Rows, clientID, c.GetHeader("X-User"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete removes an adherent unless referenced by virement items.
func (h *AdherentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.service.Delete(id)
	switch {
	case errors.Is(err, adherent.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, adherent.ErrReferenced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "adherent deleted"})
	}
}

// RibHistory returns the RIB change trail of one adherent.
func (h *AdherentHandler) RibHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	history, err := h.service.RibHistory(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": history})
}

// ListDonneurs returns the active originator profiles.
func (h *AdherentHandler) ListDonneurs(c *gin.Context) {
	donneurs, err := h.donneurs.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": donneurs})
}

// CreateDonneur registers an originator profile.
func (h *AdherentHandler) CreateDonneur(c *gin.Context) {
	var payload struct {
		Nom           string `json:"nom"`
		RIB           string `json:"rib"`
		Banque        string `json:"banque"`
		FormatTxtType string `json:"format_txt_type"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Nom == "" || !bankformat.ValidRib(payload.RIB) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nom and a 20-digit RIB are required"})
		return
	}

	d := &models.DonneurOrdre{
		Nom:           payload.Nom,
		RIB:           payload.RIB,
		Banque:        payload.Banque,
		FormatTxtType: payload.FormatTxtType,
		Statut:        "ACTIF",
	}
	if err := h.donneurs.Create(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "donneur d'ordre created", "donneur": d})
}

// UpdateDonneur modifies an originator profile.
func (h *AdherentHandler) UpdateDonneur(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.donneurs.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donneur d'ordre not found"})
		return
	}

	var payload struct {
		Nom           string `json:"nom"`
		RIB           string `json:"rib"`
		Banque        string `json:"banque"`
		FormatTxtType string `json:"format_txt_type"`
		Statut        string `json:"statut"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.RIB != "" && !bankformat.ValidRib(payload.RIB) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "RIB must be exactly 20 digits"})
		return
	}

	if payload.Nom != "" {
		d.Nom = payload.Nom
	}
	if payload.RIB != "" {
		d.RIB = payload.RIB
	}
	if payload.Banque != "" {
		d.Banque = payload.Banque
	}
	if payload.FormatTxtType != "" {
		d.FormatTxtType = payload.FormatTxtType
	}
	if payload.Statut != "" {
		d.Statut = payload.Statut
	}
	if err := h.donneurs.Update(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "donneur d'ordre updated", "donneur": d})
}

// DeleteDonneur removes an originator unless batches reference it.
func (h *AdherentHandler) DeleteDonneur(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.donneurs.Delete(id)
	switch {
	case errors.Is(err, repository.ErrDonneurReferenced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "donneur d'ordre deleted"})
	}
}
