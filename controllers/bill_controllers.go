package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

type BillController struct {
	Bills    *services.BillService
	Archives *services.ArchiveService
	Reset    *services.DailyReset
}

func NewBillController(bills *services.BillService, archives *services.ArchiveService, reset *services.DailyReset) *BillController {
	return &BillController{Bills: bills, Archives: archives, Reset: reset}
}

// ListBillRequests -> satu baris per pelanggan dan sesi
func (bc *BillController) ListBillRequests(c *gin.Context) {
	reqs, err := bc.Bills.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending bill requests", services.DedupBillRequests(reqs))
}

// Settle -> bill selesai, order lunas, sesi meja ditutup (atomik)
func (bc *BillController) Settle(c *gin.Context) {
	result, err := bc.Bills.Settle(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill settled", result)
}

// GetArchive -> ?date=YYYY-MM-DD, kosong berarti hari ini
func (bc *BillController) GetArchive(c *gin.Context) {
	view, err := bc.Archives.View(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Archive", view)
}

// RunReset -> reset harian manual, jadwal otomatis tidak berubah
func (bc *BillController) RunReset(c *gin.Context) {
	report, err := bc.Reset.RunOnce(c.Request.Context())
	if err != nil {
		utils.ErrorLogger.Printf("manual reset by %s: %v", c.GetString(middlewares.ContextUsername), err)
		// fase yang berhasil tetap dilaporkan
		respondServiceErrorWithData(c, err, report)
		return
	}
	utils.InfoLogger.WithField("username", c.GetString(middlewares.ContextUsername)).Info("manual daily reset")
	utils.RespondJSON(c, http.StatusOK, "Daily reset completed", report)
}
