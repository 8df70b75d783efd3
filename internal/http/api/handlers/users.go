package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/admin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"

	log "github.com/sirupsen/logrus"
)

// UserHandler serves admin user management endpoints.
type UserHandler struct {
	admin *admin.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *admin.Service) *UserHandler {
	return &UserHandler{admin: svc}
}

// List returns users newest-first.
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	rows, total, errList := h.admin.ListUsers(c.Request.Context(), limit, offset)
	if errList != nil {
		log.WithError(errList).Error("users: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	users := make([]userResponse, 0, len(rows))
	for i := range rows {
		users = append(users, toUserResponse(&rows[i]))
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, users)
}

// Get returns a single user.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	user, errGet := h.admin.GetUser(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, admin.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.WithError(errGet).Error("users: get failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get user failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole changes a user's role.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateRoleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, errUpdate := h.admin.UpdateRole(c.Request.Context(), id, body.Role)
	if errUpdate != nil {
		switch {
		case errors.Is(errUpdate, admin.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		case errors.Is(errUpdate, admin.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.WithError(errUpdate).Error("users: update role failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update role failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// Ban marks a user banned.
func (h *UserHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// Unban clears a user's ban.
func (h *UserHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *UserHandler) setBanned(c *gin.Context, banned bool) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var (
		user   *models.User
		errSet error
	)
	if banned {
		user, errSet = h.admin.Ban(c.Request.Context(), id)
	} else {
		user, errSet = h.admin.Unban(c.Request.Context(), id)
	}
	if errSet != nil {
		switch {
		case errors.Is(errSet, admin.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(errSet, admin.ErrAlreadyBanned):
			c.JSON(http.StatusConflict, gin.H{"error": "user is already banned"})
		case errors.Is(errSet, admin.ErrNotBanned):
			c.JSON(http.StatusConflict, gin.H{"error": "user is not banned"})
		default:
			log.WithError(errSet).Error("users: set banned failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// Delete removes a user and everything it owns.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if errDelete := h.admin.DeleteUser(c.Request.Context(), id); errDelete != nil {
		if errors.Is(errDelete, admin.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.WithError(errDelete).Error("users: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
