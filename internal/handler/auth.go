package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehail/backend/internal/model"
	"github.com/ridehail/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	useJSONFieldNames()
	return &AuthHandler{svc: svc}
}

// RegisterUser godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RegisterUserRequest true "User details"
// @Success 201 {object} model.UserAuthResponse
// @Failure 400 {object} model.ValidationErrorResponse
// @Failure 503 {object} model.MessageResponse
// @Router /users/register [post]
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req model.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrors(err))
		return
	}

	account, token, err := h.svc.Register(c.Request.Context(), model.NewAccount{
		Role:     model.RoleUser,
		FullName: model.FullName{FirstName: req.FullName.FirstName, LastName: req.FullName.LastName},
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(c, model.RoleUser, err)
		return
	}

	c.JSON(http.StatusCreated, model.UserAuthResponse{
		User:  model.NewAccountResponse(account),
		Token: token,
	})
}

// RegisterCaptain godoc
// @Summary Register a captain
// @Description New captains start inactive.
// @Tags captains
// @Accept json
// @Produce json
// @Param request body model.RegisterCaptainRequest true "Captain and vehicle details"
// @Success 201 {object} model.CaptainAuthResponse
// @Failure 400 {object} model.ValidationErrorResponse
// @Failure 503 {object} model.MessageResponse
// @Router /captains/register [post]
func (h *AuthHandler) RegisterCaptain(c *gin.Context) {
	var req model.RegisterCaptainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrors(err))
		return
	}

	account, token, err := h.svc.Register(c.Request.Context(), model.NewAccount{
		Role:     model.RoleCaptain,
		FullName: model.FullName{FirstName: req.FullName.FirstName, LastName: req.FullName.LastName},
		Email:    req.Email,
		Password: req.Password,
		Vehicle: &model.Vehicle{
			Color:       req.Vehicle.Color,
			Plate:       req.Vehicle.Plate,
			Capacity:    req.Vehicle.Capacity,
			VehicleType: req.Vehicle.VehicleType,
		},
	})
	if err != nil {
		writeAuthError(c, model.RoleCaptain, err)
		return
	}

	c.JSON(http.StatusCreated, model.CaptainAuthResponse{
		Captain: model.NewAccountResponse(account),
		Token:   token,
	})
}

// LoginUser godoc
// @Summary User login
// @Description Returns a token and also sets it as the "token" cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.UserAuthResponse
// @Failure 400 {object} model.ValidationErrorResponse
// @Failure 401 {object} model.MessageResponse
// @Router /users/login [post]
func (h *AuthHandler) LoginUser(c *gin.Context) {
	account, token, ok := h.login(c, model.RoleUser)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model.UserAuthResponse{
		User:  model.NewAccountResponse(account),
		Token: token,
	})
}

// LoginCaptain godoc
// @Summary Captain login
// @Description Returns a token and also sets it as the "token" cookie.
// @Tags captains
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.CaptainAuthResponse
// @Failure 400 {object} model.ValidationErrorResponse
// @Failure 401 {object} model.MessageResponse
// @Router /captains/login [post]
func (h *AuthHandler) LoginCaptain(c *gin.Context) {
	account, token, ok := h.login(c, model.RoleCaptain)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model.CaptainAuthResponse{
		Captain: model.NewAccountResponse(account),
		Token:   token,
	})
}

func (h *AuthHandler) login(c *gin.Context, role model.Role) (*model.Account, string, bool) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrors(err))
		return nil, "", false
	}

	account, token, err := h.svc.Login(c.Request.Context(), role, req.Email, req.Password)
	if err != nil {
		writeAuthError(c, role, err)
		return nil, "", false
	}

	h.setTokenCookie(c, token)
	return account, token, true
}

// UserProfile godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserProfileResponse
// @Failure 401 {object} model.MessageResponse
// @Router /users/profile [get]
func (h *AuthHandler) UserProfile(c *gin.Context) {
	account := GetAuthAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, model.MessageResponse{Message: msgUnauthorized})
		return
	}
	c.JSON(http.StatusOK, model.UserProfileResponse{User: model.NewAccountResponse(account)})
}

// CaptainProfile godoc
// @Summary Current captain profile
// @Tags captains
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CaptainProfileResponse
// @Failure 401 {object} model.MessageResponse
// @Router /captains/profile [get]
func (h *AuthHandler) CaptainProfile(c *gin.Context) {
	account := GetAuthAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, model.MessageResponse{Message: msgUnauthorized})
		return
	}
	c.JSON(http.StatusOK, model.CaptainProfileResponse{Captain: model.NewAccountResponse(account)})
}

// UserLogout godoc
// @Summary User logout
// @Description Revokes the presented token and clears the cookie.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.MessageResponse
// @Failure 503 {object} model.MessageResponse
// @Router /users/logout [get]
func (h *AuthHandler) UserLogout(c *gin.Context) {
	h.logout(c, model.RoleUser)
}

// CaptainLogout godoc
// @Summary Captain logout
// @Description Revokes the presented token and clears the cookie.
// @Tags captains
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.MessageResponse
// @Failure 503 {object} model.MessageResponse
// @Router /captains/logout [get]
func (h *AuthHandler) CaptainLogout(c *gin.Context) {
	h.logout(c, model.RoleCaptain)
}

func (h *AuthHandler) logout(c *gin.Context, role model.Role) {
	if err := h.svc.Logout(c.Request.Context(), getAuthToken(c)); err != nil {
		writeAuthError(c, role, err)
		return
	}
	h.clearTokenCookie(c)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Logout successful"})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, token, cfg.MaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearTokenCookie(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}
