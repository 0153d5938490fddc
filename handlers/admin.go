package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"property-marketplace/services"
	"property-marketplace/utils"
)

type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

type AdminController struct {
	issuer   *utils.TokenIssuer
	password string
	catalog  *services.Catalog
	insights *services.InsightService
	logger   *utils.Logger
}

func NewAdminController(issuer *utils.TokenIssuer, password string, catalog *services.Catalog, insights *services.InsightService, logger *utils.Logger) *AdminController {
	return &AdminController{issuer: issuer, password: password, catalog: catalog, insights: insights, logger: logger}
}

func (ac *AdminController) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if ac.password == "" || subtle.ConstantTimeCompare([]byte(req.Password), []byte(ac.password)) != 1 {
		ac.logger.Warn("[admin] Failed login from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	token, err := ac.issuer.GenerateJWT(utils.AdminRole)
	if err != nil {
		ac.logger.Error("[admin] Token generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate token"})
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (ac *AdminController) Insights(c echo.Context) error {
	report := ac.insights.Generate(ac.catalog.Listings(), ac.catalog.Bookings())
	return c.JSON(http.StatusOK, report)
}
