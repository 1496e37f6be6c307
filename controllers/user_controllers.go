package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

type UserController struct {
	Accounts *services.AccountService
}

func NewUserController(accounts *services.AccountService) *UserController {
	return &UserController{Accounts: accounts}
}

type credentialsBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CashierLogin -> return JWT role cashier
func (uc *UserController) CashierLogin(c *gin.Context) {
	var req credentialsBody
	if !bindJSON(c, &req) {
		return
	}
	res, err := uc.Accounts.AuthenticateCashier(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

// AdminLogin -> return JWT role admin
func (uc *UserController) AdminLogin(c *gin.Context) {
	var req credentialsBody
	if !bindJSON(c, &req) {
		return
	}
	res, err := uc.Accounts.AuthenticateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

// Logout -> token masuk blacklist sampai kadaluarsa
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	expiresAt := time.Time{}
	if claims, ok := c.Get(middlewares.ContextClaims); ok {
		if cc, ok := claims.(*utils.CustomClaims); ok && cc.ExpiresAt != nil {
			expiresAt = cc.ExpiresAt.Time
		}
	}
	utils.BlacklistToken(token, expiresAt)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) ListCashiers(c *gin.Context) {
	users, err := uc.Accounts.ListCashiers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of cashiers", users)
}

func (uc *UserController) CreateCashier(c *gin.Context) {
	var req credentialsBody
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.Accounts.CreateCashier(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Cashier created", user)
}

// UpdateCashier -> password kosong berarti tidak diganti
func (uc *UserController) UpdateCashier(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.Accounts.UpdateCashier(c.Request.Context(), c.Param("id"), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cashier updated", user)
}

func (uc *UserController) DeleteCashier(c *gin.Context) {
	if err := uc.Accounts.DeleteCashier(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cashier deleted", nil)
}

// UpdateAdminCredentials -> ganti username/password admin
func (uc *UserController) UpdateAdminCredentials(c *gin.Context) {
	var req credentialsBody
	if !bindJSON(c, &req) {
		return
	}
	if err := uc.Accounts.UpdateAdminCredentials(c.Request.Context(), req.Username, req.Password); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Admin credentials updated", nil)
}
