package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "flight_shop/internal/adapters/http_server"
	"flight_shop/internal/adapters/ndc"
	"flight_shop/internal/adapters/observability"
	redisad "flight_shop/internal/adapters/redis"
	"flight_shop/internal/app"
	"flight_shop/internal/shared"
	mysqlrepo "flight_shop/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens := ndc.NewTokenSource(cfg.NDCTokenURL, cfg.NDCClientID, cfg.NDCSecret, cache)
	client, err := ndc.New(cfg.NDCBase, tokens, cfg.NDCRateLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize NDC client")
	}
	shop := app.NewShopService(client, repo, cache)
	search := app.NewSearchService(shop, repo, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: search})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
