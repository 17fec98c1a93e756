package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tally/config"
	"tally/internal/adminapi"
	"tally/internal/authapi"
	"tally/internal/db"
	"tally/internal/health"
	"tally/internal/logs"
	"tally/internal/mail"
	"tally/internal/middleware"
	"tally/internal/models"
	"tally/internal/otp"
	"tally/internal/provision"
	"tally/internal/repo"
	"tally/internal/session"
	"tally/internal/token"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d
	if err := a.db.AutoMigrate(
		&models.User{},
		&models.Otp{},
		&models.RefreshToken{},
		&models.AuthEvent{},
	); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	/* 3) Сторы и сервисы */
	users := repo.NewUserStore(a.db)
	otps := repo.NewOtpStore(a.db)
	tokens := repo.NewTokenStore(a.db)
	events := repo.NewEventStore(a.db)

	mailer := mail.NewSMTP(mail.Config{
		Host:     a.cfg.SMTP.Host,
		Port:     a.cfg.SMTP.Port,
		Username: a.cfg.SMTP.Username,
		Password: a.cfg.SMTP.Password,
		From:     a.cfg.SMTP.From,
	})
	signer := token.NewService(token.Config{
		AccessSecret:  a.cfg.JWT.AccessSecret,
		RefreshSecret: a.cfg.JWT.RefreshSecret,
		AccessExpire:  a.cfg.JWT.AccessExpire,
		RefreshExpire: a.cfg.JWT.RefreshExpire,
	})

	otpTTL := time.Duration(a.cfg.OTP.ExpireMin) * time.Minute
	engine := otp.NewEngine(users, otps, mailer, events, otpTTL)
	sessions := session.NewManager(users, tokens, signer, events)
	prov := provision.NewService(users, engine, events)

	// Бутстрап первого администратора — до приёма трафика
	if err := prov.EnsureFirstAdmin(context.Background(), provision.AdminBootstrap{
		Name:     a.cfg.FirstAdmin.Name,
		Email:    a.cfg.FirstAdmin.Email,
		Password: a.cfg.FirstAdmin.Password,
	}); err != nil {
		log.Fatalf("first admin bootstrap failed: %v", err)
	}

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 5) Health */
	health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz

	/* 6) API */
	authapi.RegisterRoutes(a.Router, authapi.New(engine, sessions))
	adminapi.RegisterRoutes(a.Router, adminapi.New(prov, users), signer)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
