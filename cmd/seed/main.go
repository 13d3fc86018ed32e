// Command seed loads demo users, posts, a follow, a like and a DM room into
// the configured database, then prints a bearer token per user so the API
// can be exercised right away. It is safe to run more than once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/seed"
	"github.com/tbourn/go-social-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	printTokens := flag.Bool("tokens", sysutil.IsTruthy(sysutil.FirstNonEmpty(os.Getenv("SEED_TOKENS"), "true")),
		"print a bearer token for every seeded user")
	flag.Parse()

	cfg := config.MustLoad()
	logger := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	ctx := logger.WithContext(context.Background())

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	res, err := seed.Run(ctx, db, nil, repo.PostStore{})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	for _, u := range res.Users {
		fmt.Printf("seeded user: id=%s email=%s\n", u.ID, u.Email)
		if !*printTokens {
			continue
		}
		tok, exp, err := tokens.Issue(u.ID)
		if err != nil {
			log.Fatal().Err(err).Str("user_id", u.ID).Msg("issue token")
		}
		fmt.Printf("  token (expires %s): %s\n", exp.Format("2006-01-02 15:04"), tok)
	}
	fmt.Printf("room: id=%s (between %s and %s)\n", res.Room.ID, res.Users[0].Email, res.Users[1].Email)
}
