package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/controllers"
	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/services"
)

// Deps is everything the HTTP layer talks to.
type Deps struct {
	Sessions  *services.SessionManager
	Orders    *services.OrderEngine
	Bills     *services.BillService
	Menu      *services.MenuService
	Accounts  *services.AccountService
	Customers *services.CustomerService
	Archives  *services.ArchiveService
	Reset     *services.DailyReset
	Hub       *live.Hub

	// Limiter is applied to every route, LoginLimiter to the staff logins.
	Limiter      *middlewares.RateLimiter
	LoginLimiter *middlewares.RateLimiter

	SessionSecret string
	CORSOrigin    string
	Production    bool
	Now           func() time.Time
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(d.Production))
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	if d.Limiter != nil {
		r.Use(d.Limiter.RateLimit())
	}

	// Inisialisasi controller
	customerCtrl := controllers.NewCustomerController(d.Customers, d.Menu)
	orderCtrl := controllers.NewOrderController(d.Orders)
	if d.Now != nil {
		orderCtrl.Now = d.Now
	}
	tableCtrl := controllers.NewTableController(d.Sessions)
	billCtrl := controllers.NewBillController(d.Bills, d.Archives, d.Reset)
	userCtrl := controllers.NewUserController(d.Accounts)
	menuCtrl := controllers.NewMenuController(d.Menu)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// -- CUSTOMER (tanpa akun, identitas dari cookie) --
	customer := r.Group("/")
	customer.Use(middlewares.ClientSessions(d.SessionSecret), middlewares.ClientIdentity())
	{
		customer.GET("/menu", customerCtrl.GetMenu)
		customer.POST("/tables/:table_id/session", customerCtrl.JoinTable)
		customer.GET("/session", customerCtrl.GetSession)
		customer.DELETE("/session", customerCtrl.LeaveTable)
		customer.POST("/orders", customerCtrl.SubmitOrder)
		customer.GET("/orders/mine", customerCtrl.MyOrders)
		customer.POST("/bill-requests", customerCtrl.RequestBill)
	}

	// Rate limiter untuk login staff
	login := r.Group("/")
	if d.LoginLimiter != nil {
		login.Use(d.LoginLimiter.RateLimit())
	}
	{
		login.POST("/cashier/login", userCtrl.CashierLogin)
		login.POST("/admin/login", userCtrl.AdminLogin)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	cashier := r.Group("/cashier")
	cashier.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles(models.RoleCashier))
	{
		cashier.POST("/logout", userCtrl.Logout)

		cashier.GET("/orders", orderCtrl.GetAllOrders)
		cashier.PATCH("/orders/:order_id", orderCtrl.UpdateOrderStatus)

		cashier.POST("/passwords", tableCtrl.IssuePassword)
		cashier.GET("/passwords", tableCtrl.ListPasswords)

		cashier.GET("/bill-requests", billCtrl.ListBillRequests)
		cashier.POST("/bill-requests/:request_id/settle", billCtrl.Settle)

		cashier.GET("/archives", billCtrl.GetArchive)
		cashier.POST("/reset", billCtrl.RunReset)
	}

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/logout", userCtrl.Logout)
		admin.PUT("/credentials", userCtrl.UpdateAdminCredentials)

		// MENU
		admin.GET("/menu", menuCtrl.GetAllMenus)
		admin.POST("/menu", menuCtrl.CreateMenu)
		admin.GET("/menu/:id", menuCtrl.GetMenuByID)
		admin.PUT("/menu/:id", menuCtrl.UpdateMenu)
		admin.DELETE("/menu/:id", menuCtrl.DeleteMenu)

		// CASHIER ACCOUNTS
		admin.GET("/cashiers", userCtrl.ListCashiers)
		admin.POST("/cashiers", userCtrl.CreateCashier)
		admin.PUT("/cashiers/:id", userCtrl.UpdateCashier)
		admin.DELETE("/cashiers/:id", userCtrl.DeleteCashier)
	}

	// WebSocket endpoint dengan middleware khusus
	if d.Hub != nil {
		r.GET("/ws", middlewares.WebSocketAuthMiddleware(), controllers.LiveHandler(d.Hub))
	}

	return r
}
