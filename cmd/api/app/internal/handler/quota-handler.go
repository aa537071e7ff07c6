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

type QuotaHandler struct {
	service   *services.QuotaService
	directory *services.DirectoryService
	log       *zap.Logger
}

func NewQuotaHandler(db *gorm.DB, log *zap.Logger) *QuotaHandler {
	return &QuotaHandler{
		service:   services.NewQuotaService(db, log),
		directory: services.NewDirectoryService(db, log),
		log:       log,
	}
}

func resourceKind(c *gin.Context) string {
	if c.Query("resource") == models.ResourceEvent {
		return models.ResourceEvent
	}
	return models.ResourceNotification
}

// CheckBusiness reports quota for a business the caller owns.
func (h *QuotaHandler) CheckBusiness(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	business, err := h.directory.GetBusiness(businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business.OwnerID != userID && currentRole(c) != models.RoleSuperAdmin {
		respondError(c, services.ErrUnauthorized)
		return
	}
	status, err := h.service.Check(businessID, models.OwnerKindBusiness, resourceKind(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *QuotaHandler) CheckTown(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	townID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	role := currentRole(c)
	if role != models.RoleSuperAdmin {
		town := currentTown(c)
		if role != models.RoleTownAdmin || town == nil || *town != townID {
			respondError(c, services.ErrUnauthorized)
			return
		}
	}
	status, err := h.service.Check(townID, models.OwnerKindTown, resourceKind(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Reset is invoked by the external scheduler, guarded by the cron-secret
// middleware on its route.
func (h *QuotaHandler) Reset(c *gin.Context) {
	reset, failed := h.service.ResetDue(time.Now())
	h.log.Info("monthly quota reset completed",
		zap.Int("reset", reset),
		zap.Int("failed", failed),
	)
	c.JSON(http.StatusOK, gin.H{"reset_count": reset, "failed_count": failed})
}
