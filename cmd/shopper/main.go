package main

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"flight_shop/internal/adapters/ndc"
	"flight_shop/internal/adapters/observability"
	redisad "flight_shop/internal/adapters/redis"
	"flight_shop/internal/app"
	"flight_shop/internal/domain"
	"flight_shop/internal/shared"
	mysqlrepo "flight_shop/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.NDCBase).
		Int("workers", cfg.Workers).
		Strs("routes", cfg.Routes).
		Int("days", cfg.ShopDays).
		Msg("shopper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens := ndc.NewTokenSource(cfg.NDCTokenURL, cfg.NDCClientID, cfg.NDCSecret, cache)
	client, err := ndc.New(cfg.NDCBase, tokens, cfg.NDCRateLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize NDC client")
	}
	shop := app.NewShopService(client, repo, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	firstDay := time.Now().AddDate(0, 0, 1)
	for _, q := range buildQueries(cfg.Routes, firstDay, cfg.ShopDays) {
		q := q

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(q domain.SearchQuery) {
			defer wg.Done()
			defer sem.Release(int64(1))

			res, err := shop.Shop(ctx, q)
			if err != nil {
				log.Warn().
					Str("origin", q.Origin).Str("destination", q.Destination).
					Time("departure", q.Departure).Err(err).
					Msg("shop failed")
				return
			}
			log.Info().
				Str("origin", q.Origin).Str("destination", q.Destination).
				Time("departure", q.Departure).
				Int("offers", res.Meta.Total).
				Bool("fallback", res.Meta.IsFallback).
				Msg("shop ok")
		}(q)
	}

	wg.Wait()
	log.Info().Msg("shopping completed")
}

// buildQueries expands "JFK-LHR" route pairs across the departure window.
func buildQueries(routes []string, firstDay time.Time, days int) []domain.SearchQuery {
	if days <= 0 {
		days = 1
	}
	var out []domain.SearchQuery
	for _, r := range routes {
		parts := strings.SplitN(r, "-", 2)
		if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 3 {
			log.Warn().Str("route", r).Msg("skipping malformed route")
			continue
		}
		for d := 0; d < days; d++ {
			out = append(out, domain.SearchQuery{
				Origin:      strings.ToUpper(parts[0]),
				Destination: strings.ToUpper(parts[1]),
				Departure:   firstDay.AddDate(0, 0, d),
				Passengers:  1,
			})
		}
	}
	return out
}
