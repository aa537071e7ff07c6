package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/cmd/api/app/internal/services"
)

type DeviceHandler struct {
	service *services.DeviceService
}

func NewDeviceHandler(db *gorm.DB) *DeviceHandler {
	return &DeviceHandler{service: services.NewDeviceService(db)}
}

func (h *DeviceHandler) Register(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Register(userID, req.Token, req.Platform); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) Unregister(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Unregister(req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	devices, err := h.service.ListForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}
