package main

import (
	"fmt"
	"log"
	"os"

	"github.com/KainanAugusto/BankingBot/core/buildinfo"
	corecmd "github.com/KainanAugusto/BankingBot/core/cmd"
	"github.com/KainanAugusto/BankingBot/internal/app"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("bankingbot %s (%s) %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
			return
		}
	}

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("bankingbot: %v", err)
	}
}
