package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearstay/booking/internal/config"
	"github.com/gearstay/booking/internal/utils"
)

// AuthHandler signs in the operations admin.  There is no self-service
// registration: the single admin identity comes from configuration as
// an email plus a bcrypt password hash.
type AuthHandler struct {
	Cfg config.Config
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies the admin credentials and returns a short-lived HS256
// access token with the ADMIN role claim.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email != h.Cfg.AdminEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.Cfg.AdminPassHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Email, "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}
