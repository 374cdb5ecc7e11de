// Package bot binds the transaction flow engine to the Telegram transport:
// command and callback registration, payload decoding, and prompt rendering.
package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	tg "github.com/KainanAugusto/BankingBot/core/telegram"
	"github.com/KainanAugusto/BankingBot/core/telegram/callbacks"
	"github.com/KainanAugusto/BankingBot/core/telegram/commands"
	tghelpers "github.com/KainanAugusto/BankingBot/core/telegram/helpers"
	"github.com/KainanAugusto/BankingBot/internal/domain"
	"github.com/KainanAugusto/BankingBot/internal/flow"
)

// Register wires the banking flows into the command and callback registry.
func Register(reg *tg.Registry, eng *flow.Engine) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     handle(noErr(eng.Start)),
		Description: "Show the main menu",
	})

	bindings := map[string]tele.HandlerFunc{
		string(flow.ActionCheckBalance):     handle(eng.CheckBalance),
		string(flow.ActionDeposit):          handle(operation(eng, domain.TxDeposit)),
		string(flow.ActionWithdraw):         handle(operation(eng, domain.TxWithdrawal)),
		string(flow.ActionConfirmDeposit):   handle(confirm(eng, domain.TxDeposit)),
		string(flow.ActionConfirmWithdraw):  handle(confirm(eng, domain.TxWithdrawal)),
		string(flow.ActionCancel):           handle(noErr(eng.Cancel)),
		string(flow.ActionStartTransaction): handle(noErr(eng.NewTransaction)),
		string(flow.ActionAddMethod):        handle(noErr(eng.AddMethod)),
		string(flow.ActionNewBankTransfer):  handle(methodKind(eng, domain.MethodBankTransfer)),
		string(flow.ActionNewPayPal):        handle(methodKind(eng, domain.MethodPayPal)),
		string(flow.ActionNewCrypto):        handle(methodKind(eng, domain.MethodCrypto)),
	}
	for key, h := range bindings {
		if err := reg.RegisterCallback(key, h); err != nil {
			return err
		}
	}

	if err := reg.RegisterCallback(string(flow.ActionCryptoCurrency), cryptoCurrencyHandler(eng)); err != nil {
		return err
	}
	if err := reg.RegisterCallback(string(flow.ActionSelectMethod), selectMethodHandler(eng)); err != nil {
		return err
	}

	// Unknown buttons and stray text both land on the main menu.
	reg.SetCallbackNotFound(handle(noErr(eng.NewTransaction)))
	reg.SetTextFallback(handle(noErr(eng.Start)))
	return nil
}

type promptFunc func(ctx context.Context, chatID int64) (flow.Prompt, error)

// handle adapts a flow entry point to a telebot handler. The prompt is
// rendered first so the user always gets a reply; the flow error is then
// returned for the handler summary log.
func handle(fn promptFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		p, err := fn(ctx, chat.ID)
		if rerr := render(c, p); rerr != nil {
			return rerr
		}
		return err
	}
}

func noErr(fn func(ctx context.Context, chatID int64) flow.Prompt) promptFunc {
	return func(ctx context.Context, chatID int64) (flow.Prompt, error) {
		return fn(ctx, chatID), nil
	}
}

func operation(eng *flow.Engine, kind domain.TxKind) promptFunc {
	return func(ctx context.Context, chatID int64) (flow.Prompt, error) {
		return eng.ChooseOperation(ctx, chatID, kind), nil
	}
}

func confirm(eng *flow.Engine, kind domain.TxKind) promptFunc {
	return func(ctx context.Context, chatID int64) (flow.Prompt, error) {
		return eng.Confirm(ctx, chatID, kind)
	}
}

func methodKind(eng *flow.Engine, kind domain.MethodKind) promptFunc {
	return func(ctx context.Context, chatID int64) (flow.Prompt, error) {
		return eng.ChooseMethodKind(ctx, chatID, kind)
	}
}

func cryptoCurrencyHandler(eng *flow.Engine) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		p, err := eng.ChooseCryptoCurrency(ctx, chat.ID, callbacks.CallbackPayload(c))
		if rerr := render(c, p); rerr != nil {
			return rerr
		}
		return err
	}
}

func selectMethodHandler(eng *flow.Engine) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		index, perr := callbacks.PayloadInt(c)
		if perr != nil {
			// Malformed payload counts as a stale selection.
			index = -1
		}
		p, err := eng.SelectMethod(ctx, chat.ID, index)
		if rerr := render(c, p); rerr != nil {
			return rerr
		}
		return err
	}
}
