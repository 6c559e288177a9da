package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
)

const streamHeartbeat = 25 * time.Second

// PublicHandler serves the anonymous storefront and ticket tracking
type PublicHandler struct {
	inventory *service.InventoryService
	tickets   *service.ServiceTicketService
	heartbeat time.Duration
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(inventory *service.InventoryService, tickets *service.ServiceTicketService) *PublicHandler {
	return &PublicHandler{inventory: inventory, tickets: tickets, heartbeat: streamHeartbeat}
}

// Catalog lists stock names and prices for the storefront
func (h *PublicHandler) Catalog(c *gin.Context) {
	entries, err := h.inventory.Catalog(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Catalog retrieved successfully", entries)
}

// ServiceStatus looks a ticket up by its service code
func (h *PublicHandler) ServiceStatus(c *gin.Context) {
	status, err := h.tickets.PublicStatus(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Service status retrieved successfully", status)
}

// StreamServiceStatus pushes status changes for one ticket as server-sent
// events until the device is picked up, the ticket is deleted or the
// client goes away.
func (h *PublicHandler) StreamServiceStatus(c *gin.Context) {
	ctx := c.Request.Context()
	status, err := h.tickets.PublicStatus(ctx, c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	updates, cancel := h.tickets.Hub().Subscribe(status.ServiceCode)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("status", status)
	c.Writer.Flush()
	if status.PickupStatus == enum.PickupStatusPickedUp {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case next, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("status", next)
			return next.PickupStatus != enum.PickupStatusPickedUp
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
