package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/auth"
	"github.com/smsrelay-dev/smsrelay-admin/internal/invites"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"

	log "github.com/sirupsen/logrus"
)

// InviteHandler serves admin invite management endpoints.
type InviteHandler struct {
	invites *invites.Service
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(svc *invites.Service) *InviteHandler {
	return &InviteHandler{invites: svc}
}

type inviteResponse struct {
	ID          uint64            `json:"id"`
	Code        string            `json:"code"`
	CreatedBy   *identityResponse `json:"createdBy,omitempty"`
	UsedBy      *identityResponse `json:"usedBy,omitempty"`
	MaxUses     int               `json:"maxUses"`
	CurrentUses int               `json:"currentUses"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	Note        string            `json:"note,omitempty"`
	IsRevoked   bool              `json:"isRevoked"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toInviteResponse(invite *models.Invite) inviteResponse {
	resp := inviteResponse{
		ID:          invite.ID,
		Code:        invite.Code,
		CreatedBy:   toIdentityResponse(invite.CreatedBy),
		MaxUses:     invite.MaxUses,
		CurrentUses: invite.CurrentUses,
		ExpiresAt:   invite.ExpiresAt,
		Note:        invite.Note,
		IsRevoked:   invite.IsRevoked,
		CreatedAt:   invite.CreatedAt,
		UpdatedAt:   invite.UpdatedAt,
	}
	if invite.UsedBy != nil {
		resp.UsedBy = toIdentityResponse(invite.UsedBy)
	}
	return resp
}

type createInviteRequest struct {
	MaxUses       int    `json:"maxUses"`
	ExpiresInDays int    `json:"expiresInDays"`
	Note          string `json:"note"`
}

// Create issues a new invite code.
func (h *InviteHandler) Create(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body createInviteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.MaxUses < 0 || body.ExpiresInDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxUses and expiresInDays must be positive"})
		return
	}

	invite, errCreate := h.invites.Create(c.Request.Context(), invites.CreateOptions{
		MaxUses:       body.MaxUses,
		ExpiresInDays: body.ExpiresInDays,
		Note:          body.Note,
	}, user.ID)
	if errCreate != nil {
		log.WithError(errCreate).Error("invites: create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create invite failed"})
		return
	}
	invite.CreatedBy = &models.User{ID: user.ID, Name: user.Name, Email: user.Email}
	c.JSON(http.StatusCreated, gin.H{"invite": toInviteResponse(invite)})
}

// List returns invites newest-first.
func (h *InviteHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	rows, total, errList := h.invites.List(c.Request.Context(), limit, offset)
	if errList != nil {
		log.WithError(errList).Error("invites: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list invites failed"})
		return
	}

	items := make([]inviteResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toInviteResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

// Get returns a single invite.
func (h *InviteHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	invite, errGet := h.invites.GetByID(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, invites.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
			return
		}
		log.WithError(errGet).Error("invites: get failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get invite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": toInviteResponse(invite)})
}

// Revoke disables an invite. Repeated revokes succeed.
func (h *InviteHandler) Revoke(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if errRevoke := h.invites.Revoke(c.Request.Context(), id); errRevoke != nil {
		if errors.Is(errRevoke, invites.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
			return
		}
		log.WithError(errRevoke).Error("invites: revoke failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "revoke invite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// Delete hard-removes an invite.
func (h *InviteHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if errDelete := h.invites.Delete(c.Request.Context(), id); errDelete != nil {
		if errors.Is(errDelete, invites.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
			return
		}
		log.WithError(errDelete).Error("invites: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete invite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
