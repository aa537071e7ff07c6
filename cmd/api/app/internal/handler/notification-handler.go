package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/cmd/api/app/internal/services"
	"github.com/cwmaia/townhub/pkg/push"
	"github.com/cwmaia/townhub/pkg/types"
)

type NotificationHandler struct {
	service  *services.NotificationService
	dispatch *services.DispatchService
	log      *zap.Logger
}

func NewNotificationHandler(db *gorm.DB, transport push.Transport, producer services.Publisher, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:  services.NewNotificationService(db),
		dispatch: services.NewDispatchService(db, transport, producer, log),
		log:      log,
	}
}

func (h *NotificationHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var req types.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	notification, err := h.service.Create(req, userID, currentRole(c), currentTown(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	notification, err := h.service.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	result, err := h.dispatch.Send(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) Redrive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	result, err := h.dispatch.Redrive(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) Click(c *gin.Context) {
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
	if err := h.service.Click(id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Inbox(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	items, err := h.service.Inbox(userID, 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
