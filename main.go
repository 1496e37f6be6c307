package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/siparist/config"
	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/router"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	now := func() time.Time { return time.Now().In(loc) }

	// Set gin mode
	if cfg.GinMode == gin.ReleaseMode || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.ConfigureTokens([]byte(cfg.JWTSecret), cfg.JWTTTL)

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	st := store.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, st, now)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to start: %v", err)
	}
	defer a.publisher.Close()
	if a.redis != nil {
		defer a.redis.Close()
	}
	a.start(ctx)
	go housekeeping(ctx, a.limiter, a.loginLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down...")

	cancel()
	a.stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
	utils.InfoLogger.Println("Server exited")
}

// app is the wired process: services, background workers and the router.
type app struct {
	router       *gin.Engine
	hub          *live.Hub
	views        *services.LiveViews
	reset        *services.DailyReset
	publisher    queue.Publisher
	redis        *redis.Client
	limiter      *middlewares.RateLimiter
	loginLimiter *middlewares.RateLimiter
}

func newApp(ctx context.Context, cfg *config.Config, st *store.Store, now func() time.Time) (*app, error) {
	accounts := services.NewAccountService(st, cfg.BcryptCost)
	accounts.Now = now
	if err := accounts.EnsureDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword); err != nil {
		return nil, err
	}

	// Event publisher, RabbitMQ bila dikonfigurasi
	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher = queue.NewAMQPPublisher(cfg.RabbitMQURL)
	}

	redisClient := config.NewRedisClient(cfg)
	cache := services.NewCredentialCache(redisClient, cfg.CredentialTTL)

	sessions := services.NewSessionManager(st, nil, cfg.ResetHour, cfg.ResetMinute)
	sessions.Now = now
	orders := services.NewOrderEngine(st, publisher)
	orders.Now = now
	bills := services.NewBillService(st, publisher)
	bills.Now = now
	menu := services.NewMenuService(st)
	customers := services.NewCustomerService(sessions, orders, bills, menu, cache)
	customers.Now = now
	archives := services.NewArchiveService(st, cfg.OperatorID)
	archives.Now = now

	hub := live.NewHub()
	views := services.NewLiveViews(st, hub)
	views.Now = now

	reset := services.NewDailyReset(st, publisher, cfg.OperatorID, cfg.ResetHour, cfg.ResetMinute)
	reset.Now = now
	reset.Notify = hub

	a := &app{
		hub:          hub,
		views:        views,
		reset:        reset,
		publisher:    publisher,
		redis:        redisClient,
		limiter:      middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		loginLimiter: middlewares.NewStrictRateLimiter(cfg.LoginRPS, cfg.LoginBurst),
	}
	a.router = router.SetupRouter(router.Deps{
		Sessions:      sessions,
		Orders:        orders,
		Bills:         bills,
		Menu:          menu,
		Accounts:      accounts,
		Customers:     customers,
		Archives:      archives,
		Reset:         reset,
		Hub:           hub,
		Limiter:       a.limiter,
		LoginLimiter:  a.loginLimiter,
		SessionSecret: cfg.SessionSecret,
		CORSOrigin:    cfg.CORSOrigin,
		Production:    cfg.IsProduction(),
		Now:           now,
	})
	return a, nil
}

// start menjalankan live view dan jadwal reset harian
func (a *app) start(ctx context.Context) {
	a.views.Start(ctx)
	a.reset.Start(ctx)
}

func (a *app) stop() {
	a.reset.Stop()
	a.views.Stop()
}

// housekeeping buang visitor rate limiter yang idle dan token blacklist yang sudah kadaluarsa
func housekeeping(ctx context.Context, limiters ...*middlewares.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			for _, l := range limiters {
				l.Cleanup(t)
			}
			if n := utils.PruneBlacklist(t); n > 0 {
				utils.InfoLogger.WithField("pruned", n).Debug("token blacklist pruned")
			}
		}
	}
}
