package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"code-redemption/internal/config"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/infra/web"
)

// token prints a signed identity token for local testing:
//
//	token -config config.yaml -role staff -sub alice -channel ch-1
func main() {
	role := flag.String("role", "user", "admin|staff|proxy|user")
	sub := flag.String("sub", "", "subject id")
	channel := flag.String("channel", "", "staff channel scope")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	r := model.ParseRole(*role)
	if r == model.RoleAnonymous {
		log.Fatalf("unknown role %q", *role)
	}
	if strings.TrimSpace(*sub) == "" {
		log.Fatal("-sub is required")
	}
	actor := model.Actor{ID: strings.TrimSpace(*sub), Role: r}
	if c := strings.TrimSpace(*channel); c != "" {
		actor.ChannelID = &c
	}

	signed, err := web.NewAuthManager(cfg.Auth).Mint(actor)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(signed)
}
