// Package app assembles the banking bot: infrastructure bootstrap, flow
// engine construction, and the Telegram runtime options.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	corebootstrap "github.com/KainanAugusto/BankingBot/core/bootstrap"
	coretelegram "github.com/KainanAugusto/BankingBot/core/telegram"
	tghelpers "github.com/KainanAugusto/BankingBot/core/telegram/helpers"
	"github.com/KainanAugusto/BankingBot/core/telegram/router"
	"github.com/KainanAugusto/BankingBot/internal/bot"
	"github.com/KainanAugusto/BankingBot/internal/flow"
	"github.com/KainanAugusto/BankingBot/internal/session"
	"github.com/KainanAugusto/BankingBot/internal/store"
)

// App holds the wired application: database handle, registry, and engine.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	registry *coretelegram.Registry
	engine   *flow.Engine
}

// Bootstrap initializes logging, storage, and migrations, then wires the
// flow engine and handler registry.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	accounts := store.NewPostgres(res.DB)
	engine := flow.New(accounts, session.NewManager())

	registry := coretelegram.NewRegistry()
	if err := bot.Register(registry, engine); err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: handler registration failed: %w", err)
	}

	return &App{
		cfg:      cfg,
		db:       res.DB,
		registry: registry,
		engine:   engine,
	}, nil
}

// TelegramRunOptions builds the bot runtime: middleware chain, registry
// routes, the conversation-aware text route, and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	middlewares := coretelegram.DefaultMiddlewares(&a.cfg.Core, func(c tele.Context) error {
		return tghelpers.SendText(c, "⏳ Too fast! Give it a second.")
	})

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(bot.NewConversation(a.engine), a.registry, router.TextOptions{}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    a.registry,
		Middlewares: middlewares,
		Routes:      routes,
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
