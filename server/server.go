package server

import (
	"context"
	"errors"
	"fmt"
	"jojarts/config"
	"jojarts/controller"
	"jojarts/database"
	"jojarts/middlewares"
	"jojarts/route"
	"jojarts/storage"
	"jojarts/store"
	"jojarts/utils"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// Stores bundles the MongoDB-backed stores.
type Stores struct {
	Client *mongo.Client
	Admins *store.AdminStore
	Images *store.ImageStore
}

// OpenStores connects to MongoDB, creates indexes and makes sure the
// bootstrap administrator exists. Connection failures are returned wrapped
// in database.ErrStorageUnavailable.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	client, err := database.Connect(ctx, cfg.MongoURI, logger)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDB)
	s := &Stores{
		Client: client,
		Admins: store.NewAdminStore(db.Collection(database.UsersCollection), logger),
		Images: store.NewImageStore(db.Collection(database.ImagesCollection)),
	}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.Admins.EnsureIndexes(setupCtx); err != nil {
		database.Disconnect(client, logger)
		return nil, err
	}
	if err := s.Images.EnsureIndexes(setupCtx); err != nil {
		database.Disconnect(client, logger)
		return nil, err
	}
	if err := s.Admins.EnsureBootstrapAdmin(setupCtx, cfg.AdminUser, cfg.AdminPass); err != nil {
		database.Disconnect(client, logger)
		return nil, fmt.Errorf("bootstrapping admin: %w", err)
	}
	return s, nil
}

// NewRouter builds the gin engine with CORS, request logging and every route.
func NewRouter(cfg *config.Config, logger *zap.Logger, h *controller.Handler, tokens middlewares.TokenVerifier, loginLimiter *middlewares.RateLimiter) *gin.Engine {
	router := gin.New()
	// Without trusted proxies ClientIP is the TCP peer and X-Forwarded-For is ignored.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Ignoring invalid trusted proxies", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Authorization", "Accept", middlewares.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middlewares.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(cors.New(corsConfig))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Nem található."})
	})

	route.Register(router, h, tokens, loginLimiter)
	return router
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer database.Disconnect(stores.Client, logger)

	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	opts := []controller.Option{controller.WithTimeout(cfg.DBTimeout)}
	if cfg.UploadsEnabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.BucketName, cfg.AWSRegion, cfg.UploadPrefix)
		if err != nil {
			return err
		}
		opts = append(opts, controller.WithUploader(uploader, int64(cfg.UploadMaxMB)<<20))
		logger.Info("Upload proxy enabled", zap.String("bucket", cfg.BucketName), zap.String("region", cfg.AWSRegion))
	}
	handler := controller.NewHandler(stores.Admins, tokens, stores.Images, opts...)

	loginLimiter := middlewares.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, logger, handler, tokens, loginLimiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API running", zap.String("addr", "http://localhost:"+cfg.Port))
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

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
