package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"code-redemption/internal/config"
	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	pg "code-redemption/internal/infra/db/postgres"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/usecase"

	"github.com/shopspring/decimal"
)

func main() {
	count := flag.Int("count", 20, "codes to generate per card")
	proxy := flag.String("proxy", "", "also generate a batch owned by this proxy id")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.Database.MaxConns = 4
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	cardRepo := pg.NewPostgresCardRepo(pool)
	codeRepo := pg.NewActivationCodeRepo(pool)
	channelRepo := pg.NewPostgresChannelRepo(pool)
	tm := pg.NewTxManager(pool)
	channelUC := usecase.NewChannelUseCase(channelRepo, cardRepo, tm, logger)
	cardUC := usecase.NewCardUseCase(cardRepo, codeRepo, channelRepo, tm, logger)
	codeUC := usecase.NewCodeUseCase(cardRepo, codeRepo, tm, nil, logger)

	admin := model.Actor{ID: "seed", Role: model.RoleAdmin}

	if _, err := channelUC.Create(ctx, admin, "ch-1", "Reseller channel 1", "seeded demo channel"); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			log.Fatalf("create channel: %v", err)
		}
		fmt.Println("channel ch-1 already present. Skipping.")
	}

	seed := []struct {
		Name    string
		Desc    string
		Price   string
		Channel string
	}{
		{"Plus-1M", "One month of Plus", "158", ""},
		{"Plus-3M", "Three months of Plus", "420", ""},
		{"Team-1M", "One month of Team, sold through ch-1", "300", "ch-1"},
	}

	for _, s := range seed {
		var channel *string
		if s.Channel != "" {
			channel = &s.Channel
		}
		card, err := cardUC.Create(ctx, admin, s.Name, s.Desc, decimal.RequireFromString(s.Price), true, channel)
		if errors.Is(err, domain.ErrCardNameTaken) {
			fmt.Printf("card %q already present. Skipping.\n", s.Name)
			continue
		}
		if err != nil {
			log.Fatalf("create card %q: %v", s.Name, err)
		}
		codes, err := codeUC.Generate(ctx, admin, card.ID, *count, nil)
		if err != nil {
			log.Fatalf("generate codes for %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, price=%s) with %d codes\n", card.Name, card.ID, card.Price.StringFixed(2), len(codes))

		if p := strings.TrimSpace(*proxy); p != "" {
			owned, err := codeUC.Generate(ctx, admin, card.ID, *count, &p)
			if err != nil {
				log.Fatalf("generate proxy codes for %q: %v", s.Name, err)
			}
			fmt.Printf("  + %d codes for proxy %s\n", len(owned), p)
		}
	}

	fmt.Println("Seeding complete.")
}
