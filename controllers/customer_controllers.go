package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

// CustomerController serves the table-side screens.
type CustomerController struct {
	Customers *services.CustomerService
	Menu      *services.MenuService
}

func NewCustomerController(customers *services.CustomerService, menu *services.MenuService) *CustomerController {
	return &CustomerController{Customers: customers, Menu: menu}
}

func clientID(c *gin.Context) string {
	return c.GetString(middlewares.ContextClientID)
}

// GetMenu -> menu dikelompokkan per kategori
func (cc *CustomerController) GetMenu(c *gin.Context) {
	groups, err := cc.Menu.Grouped(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", groups)
}

// JoinTable -> login meja dengan password dari kasir
func (cc *CustomerController) JoinTable(c *gin.Context) {
	var req struct {
		CustomerName string `json:"customer_name" binding:"required"`
		Password     string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	creds, err := cc.Customers.Login(c.Request.Context(), clientID(c), services.TableLogin{
		TableID:      c.Param("table_id"),
		CustomerName: req.CustomerName,
		Password:     req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Joined table", creds)
}

// GetSession -> cek ulang kredensial yang tersimpan
func (cc *CustomerController) GetSession(c *gin.Context) {
	creds, err := cc.Customers.Current(c.Request.Context(), clientID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session active", creds)
}

func (cc *CustomerController) LeaveTable(c *gin.Context) {
	if err := cc.Customers.Logout(c.Request.Context(), clientID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Left table", nil)
}

type tableLoginBody struct {
	TableID      string `json:"table_id"`
	CustomerName string `json:"customer_name"`
	Password     string `json:"password"`
}

func (b tableLoginBody) login() services.TableLogin {
	return services.TableLogin{TableID: b.TableID, CustomerName: b.CustomerName, Password: b.Password}
}

// SubmitOrder -> kirim keranjang; kredensial diambil dari cache atau body
func (cc *CustomerController) SubmitOrder(c *gin.Context) {
	var req struct {
		tableLoginBody
		Items []services.CartLine `json:"items"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := cc.Customers.SubmitOrder(c.Request.Context(), clientID(c), req.login(), req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order submitted", order)
}

func (cc *CustomerController) MyOrders(c *gin.Context) {
	orders, err := cc.Customers.MyOrders(c.Request.Context(), clientID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Your orders", orders)
}

func (cc *CustomerController) RequestBill(c *gin.Context) {
	var req tableLoginBody
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	bill, err := cc.Customers.RequestBill(c.Request.Context(), clientID(c), req.login())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill requested", bill)
}
