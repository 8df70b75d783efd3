package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
)

// userResponse is the wire shape of a user. The password hash never
// leaves the service.
type userResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsBanned  bool      `json:"isBanned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		IsBanned:  user.IsBanned,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// identityResponse is the minimal user identity embedded in invite rows.
type identityResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toIdentityResponse(user *models.User) *identityResponse {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &identityResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}

func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if raw := c.Query("limit"); raw != "" {
		if v, errParse := strconv.Atoi(raw); errParse == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, errParse := strconv.Atoi(raw); errParse == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
