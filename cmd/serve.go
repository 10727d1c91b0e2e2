package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"travelblog/accounts"
	"travelblog/blog"
	"travelblog/cache"
	"travelblog/config"
	"travelblog/database"
	"travelblog/email"
	"travelblog/logging"
	"travelblog/site"
	"travelblog/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, logger, db, err := openDatabase()
	if err != nil {
		return err
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pageCache, err := cache.New(cfg, logger)
	if err != nil {
		logger.Warn("page cache unavailable, serving uncached", slog.Any("error", err))
		pageCache = nil
	}

	router, err := NewRouter(cfg, db, pageCache, email.NewSender(cfg, logger), logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter assembles the application. pageCache may be nil.
func NewRouter(cfg *config.Config, db *gorm.DB, pageCache cache.Store, sender email.Sender, logger *slog.Logger) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(logger))

	store := cookie.NewStore(cfg.Secret())
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("travelblog-session", store))

	accountsModule := accounts.NewAccountsModule(db, cfg.BcryptCost, logger)
	router.Use(accountsModule.Identity())

	if err := views.Load(router, cfg.Location()); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router.Static("/media", cfg.MediaDir)

	notifier := email.NewCommentNotifier(sender, cfg.FromEmail, cfg.AdminEmail, cfg.SiteURL, cfg.Location())
	blogModule := blog.NewBlogModule(db, notifier, pageCache, cfg.DetailCacheTTL, logger)
	blogModule.RegisterRoutes(router)

	accountsModule.RegisterRoutes(router)

	siteModule := site.NewSiteModule(db, cfg.SiteURL, logger)
	siteModule.RegisterRoutes(router)

	return router, nil
}
