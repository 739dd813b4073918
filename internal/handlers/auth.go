package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/config"
	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/middleware"
	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/services"
	"github.com/lucverne/bistro-api/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and account routes
type AuthHandler struct {
	DB       *gorm.DB
	Config   *config.Config
	Resolver *geoip.Resolver
}

// UserResponse is the sanitized user shape returned by the API
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	City      string    `json:"city"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		City:      u.City,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register a new account
// @Description Create a user account with a registered city
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration payload"
// @Success 201 {object} UserResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "auth.register")
	}

	if input.Username == "" || input.Email == "" || input.Password == "" || input.City == "" {
		return utils.ErrorResponse(c, "Missing required fields (username, email, password, city)",
			fiber.StatusBadRequest, "auth.register")
	}

	user, err := services.Register(h.DB, input)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, "auth.register")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "auth.register")
	}

	log.Printf("auth: registered user %q (city %q)", user.Username, user.City)

	return utils.SuccessResponse(c, fiber.Map{
		"message": "Registration successful",
		"user":    userResponse(user),
	}, fiber.StatusCreated)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Authenticate and receive an access token. The request's
// @Description resolved location is recorded against the account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "auth.login")
	}

	user, err := services.Authenticate(h.DB, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return utils.ErrorResponse(c, "Invalid credentials", fiber.StatusUnauthorized, "auth.login")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "auth.login")
	}

	token, err := services.IssueToken(user, h.Config.JWTSecret, h.Config.JWTExpiry)
	if err != nil {
		return utils.ErrorResponse(c, "Failed to issue token", fiber.StatusInternalServerError, "auth.login")
	}

	ip := middleware.RequestIP(c)
	res := h.Resolver.Resolve(c.UserContext(), ip)

	// The login record is part of the audit trail; a storage failure here
	// aborts the request like any other relational write failure
	record, err := services.RecordLocation(h.DB, user, res, ip, models.ActionLogin)
	if err != nil {
		log.Printf("auth: location record for %q failed: %v", user.Username, err)
		return utils.ErrorResponse(c, "Failed to record login location",
			fiber.StatusInternalServerError, "auth.login")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"message":           "Login successful",
		"access_token":      token,
		"user":              userResponse(user),
		"location_tracking": services.TrackingFor(record, user.City),
	}, fiber.StatusOK)
}

// Me handles GET /api/auth/me
// @Summary Get the authenticated account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := requestUser(c, "auth.me")
	if user == nil {
		return err
	}
	return utils.SuccessResponse(c, userResponse(user), fiber.StatusOK)
}

// MyLocations handles GET /api/auth/me/locations
// @Summary Get the authenticated account's location history
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserLocation
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me/locations [get]
func (h *AuthHandler) MyLocations(c *fiber.Ctx) error {
	user, err := requestUser(c, "auth.locations")
	if user == nil {
		return err
	}

	locations, err := services.UserLocations(h.DB, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "auth.locations")
	}

	return utils.SuccessResponse(c, locations, fiber.StatusOK)
}
