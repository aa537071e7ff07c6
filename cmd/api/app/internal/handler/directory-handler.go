package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/cmd/api/app/internal/services"
	"github.com/cwmaia/townhub/pkg/models"
)

type DirectoryHandler struct {
	service *services.DirectoryService
}

func NewDirectoryHandler(db *gorm.DB, log *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{service: services.NewDirectoryService(db, log)}
}

func (h *DirectoryHandler) CreateTown(c *gin.Context) {
	if currentRole(c) != models.RoleSuperAdmin {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		Name     string `json:"name" binding:"required"`
		Slug     string `json:"slug" binding:"required"`
		ImageURL string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	town, err := h.service.CreateTown(req.Name, req.Slug, req.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, town)
}

func (h *DirectoryHandler) GetTown(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	town, err := h.service.GetTown(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, town)
}

func (h *DirectoryHandler) ListTowns(c *gin.Context) {
	towns, err := h.service.ListTowns()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, towns)
}

func (h *DirectoryHandler) CreateBusiness(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		TownID      string `json:"town_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
		Tags        string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	townID, err := uuid.Parse(req.TownID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid town_id"})
		return
	}
	business, err := h.service.CreateBusiness(&models.Business{
		TownID:      townID,
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, business)
}

func (h *DirectoryHandler) GetBusiness(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	business, err := h.service.GetBusiness(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func (h *DirectoryHandler) ListBusinesses(c *gin.Context) {
	townID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	businesses, err := h.service.ListBusinessesByTown(townID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}

func (h *DirectoryHandler) UpdateBusiness(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		ImageURL    *string `json:"image_url"`
		Tags        *string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.Tags != nil {
		fields["tags"] = *req.Tags
	}
	if err := h.service.UpdateBusiness(id, userID, currentRole(c), fields); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DirectoryHandler) CreatePlace(c *gin.Context) {
	if currentRole(c) != models.RoleSuperAdmin && currentRole(c) != models.RoleTownAdmin {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		TownID    string  `json:"town_id" binding:"required"`
		Name      string  `json:"name" binding:"required"`
		Category  string  `json:"category"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		ImageURL  string  `json:"image_url"`
		Tags      string  `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	townID, err := uuid.Parse(req.TownID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid town_id"})
		return
	}
	place, err := h.service.CreatePlace(&models.Place{
		TownID:    townID,
		Name:      req.Name,
		Category:  req.Category,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		ImageURL:  req.ImageURL,
		Tags:      req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, place)
}

func (h *DirectoryHandler) GetPlace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	place, err := h.service.GetPlace(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

func (h *DirectoryHandler) ListPlaces(c *gin.Context) {
	townID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	places, err := h.service.ListPlacesByTown(townID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}

func (h *DirectoryHandler) CreateEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		BusinessID  string    `json:"business_id" binding:"required"`
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		StartsAt    time.Time `json:"starts_at" binding:"required"`
		EndsAt      time.Time `json:"ends_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business_id"})
		return
	}
	event, err := h.service.CreateEvent(&models.Event{
		BusinessID:  businessID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}, userID, currentRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *DirectoryHandler) ListEvents(c *gin.Context) {
	townID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	events, err := h.service.ListEventsByTown(townID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
