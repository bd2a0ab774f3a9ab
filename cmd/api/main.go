package main

import (
	"context"
	"database/sql"
	"embed"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	dashboardpkg "github.com/mark3748/helpdesk-sla/cmd/api/dashboard"
	exportspkg "github.com/mark3748/helpdesk-sla/cmd/api/exports"
	metricspkg "github.com/mark3748/helpdesk-sla/cmd/api/metrics"
	slaspkg "github.com/mark3748/helpdesk-sla/cmd/api/slas"
	wspkg "github.com/mark3748/helpdesk-sla/cmd/api/ws"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	_ = godotenv.Load()
	cfg := apppkg.GetConfig()
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer pool.Close()

	// Migrate (embedded goose) using pgx stdlib driver
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("goose dialect")
	}
	sqldb, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("sql open for goose")
	}
	defer sqldb.Close()
	if err := goose.UpContext(ctx, sqldb, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrate up")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("redis ping")
		}
		defer rdb.Close()
	}

	var mc *minio.Client
	if cfg.MinIOEndpoint != "" {
		mc, err = minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccess, cfg.MinIOSecret, ""),
			Secure: cfg.MinIOUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("minio init")
		}
	}
	var store apppkg.ObjectStore
	if mc != nil {
		store = mc
	} else if cfg.FileStorePath != "" {
		if err := os.MkdirAll(cfg.FileStorePath, 0o755); err != nil {
			log.Fatal().Err(err).Str("path", cfg.FileStorePath).Msg("create filestore path")
		}
		store = &apppkg.FsObjectStore{Base: cfg.FileStorePath}
	}

	resolver := slapkg.NewResolver(&slapkg.PGConfigStore{DB: pool})
	a := apppkg.NewApp(cfg, pool, store, rdb, resolver)

	hub := wspkg.NewHub(rdb)
	go hub.Run(ctx)
	routes(a, hub)

	srv := &http.Server{
		Addr:           cfg.Addr,
		Handler:        a.R,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.Info().Str("addr", cfg.Addr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}
}

func routes(a *apppkg.App, hub *wspkg.Hub) {
	a.R.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	a.R.GET("/metrics", metricspkg.Handler(a))

	a.R.GET("/tickets/:id/sla", slaspkg.TicketSLA(a))
	a.R.GET("/slas", slaspkg.List(a))
	a.R.POST("/slas/resolve", slaspkg.Resolve(a))
	a.R.POST("/slas/cache/purge", slaspkg.CachePurge(a))
	a.R.POST("/slas/cache/preload", slaspkg.CachePreload(a))

	a.R.GET("/dashboard/sla", dashboardpkg.SLA(a))
	a.R.POST("/exports/breaches", exportspkg.Breaches(a))

	a.R.GET("/ws/sla", func(c *gin.Context) {
		conn, err := wspkg.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := wspkg.NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump(c.Request.Context())
		client.ReadPump()
	})
}
