package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/judyrop/tienda-backend/app/orders"
	"github.com/judyrop/tienda-backend/config"
	"github.com/judyrop/tienda-backend/logging"
	"github.com/judyrop/tienda-backend/middleware"
	"github.com/judyrop/tienda-backend/models"
)

func init() {
	// money fields go out as JSON numbers, as the frontend expects
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, closeLog := logging.Init(logging.Options{
		Component:  cfg.App.Name,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer closeLog.Close()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database handle:", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}

	var verifier middleware.TokenVerifier
	if cfg.Auth.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		verifier, err = middleware.NewOIDCVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.ClientID)
		cancel()
		if err != nil {
			log.Fatal("Failed to init OIDC:", err)
		}
	}

	r := SetupRouter(db, cfg, verifier)
	logger.Info("server starting", "addr", cfg.App.HTTPAddr, "driver", cfg.Database.Driver)
	if err := r.Run(cfg.App.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		dialector = postgres.Open(cfg.Database.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// SetupRouter wires the HTTP surface. A nil verifier leaves /pedidos open.
func SetupRouter(db *gorm.DB, cfg config.Config, verifier middleware.TokenVerifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.Logging(logging.New("http")))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	svc := orders.NewService(
		models.NewOrdersRepository(db),
		orders.WithLineConcurrency(cfg.Orders.LineInsertConcurrency),
	)
	h := orders.NewHandler(svc, cfg.Orders.RequestTimeout)

	pedidos := r.Group("/pedidos")
	if verifier != nil {
		pedidos.Use(middleware.Auth(verifier))
	}
	h.Register(pedidos)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}
