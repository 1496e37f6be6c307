package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

// TableController hands out table passwords.
type TableController struct {
	Sessions *services.SessionManager
}

func NewTableController(sessions *services.SessionManager) *TableController {
	return &TableController{Sessions: sessions}
}

// IssuePassword -> password baru untuk meja, sesi lama otomatis diganti
func (tc *TableController) IssuePassword(c *gin.Context) {
	var req struct {
		TableID string `json:"table_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := tc.Sessions.IssuePassword(c.Request.Context(), req.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Password issued", session)
}

func (tc *TableController) ListPasswords(c *gin.Context) {
	sessions, err := tc.Sessions.ListActive(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active table passwords", sessions)
}
