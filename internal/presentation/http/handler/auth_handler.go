package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
)

// AuthHandler serves login, customer sign-up and staff accounts.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type session struct {
	User        *entity.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
}

// Login exchanges credentials for a bearer token
// @Summary Login
// @Tags auth
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	out, err := h.authService.Login(c.Request.Context(), &service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Login successful", session{User: out.User, AccessToken: out.AccessToken, TokenType: "Bearer"})
}

// Register creates a customer account, used by the storefront
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	h.createAccount(c, accountInput(req.Name, req.Email, req.Phone, req.Password), enum.RoleCustomer)
}

// CreateStaff adds a technician or admin. Admin only.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req request.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	h.createAccount(c, accountInput(req.Name, req.Email, req.Phone, req.Password), enum.Role(req.Role))
}

func accountInput(name, email, phone, password string) *service.RegisterInput {
	return &service.RegisterInput{Name: name, Email: email, Phone: phone, Password: password}
}

func (h *AuthHandler) createAccount(c *gin.Context, in *service.RegisterInput, role enum.Role) {
	var (
		user *entity.User
		err  error
	)
	if role == enum.RoleCustomer {
		user, err = h.authService.Register(c.Request.Context(), in)
	} else {
		user, err = h.authService.CreateStaff(c.Request.Context(), in, role)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Account created", user)
}

// GetProfile returns the caller's own account
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile retrieved successfully", user)
}
