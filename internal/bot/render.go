package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/KainanAugusto/BankingBot/core/telegram/helpers"
	"github.com/KainanAugusto/BankingBot/core/telegram/keyboard"
	"github.com/KainanAugusto/BankingBot/internal/flow"
)

// render turns a flow prompt into an outbound message. Button presses edit
// the originating message in place so each conversation keeps one evolving
// message; plain text replies get a new message.
func render(c tele.Context, p flow.Prompt) error {
	if p.Text == "" {
		return nil
	}

	markup := promptMarkup(p)
	if c.Callback() != nil {
		if markup != nil {
			return tghelpers.EditOrSendMarkup(c, p.Text, markup)
		}
		return tghelpers.EditOrSendMarkup(c, p.Text)
	}
	if markup != nil {
		return tghelpers.SendMarkup(c, p.Text, markup)
	}
	return tghelpers.SendText(c, p.Text)
}

func promptMarkup(p flow.Prompt) *tele.ReplyMarkup {
	if len(p.Rows) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(p.Rows))
	for _, r := range p.Rows {
		btns := make([]keyboard.InlineBtn, 0, len(r))
		for _, ch := range r {
			btns = append(btns, keyboard.InlineBtn{
				Text:   ch.Label,
				Unique: string(ch.Action),
				Data:   ch.Payload,
			})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}
