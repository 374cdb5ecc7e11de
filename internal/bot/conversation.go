package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/KainanAugusto/BankingBot/core/telegram/helpers"
	"github.com/KainanAugusto/BankingBot/internal/flow"
)

// Conversation adapts the flow engine to the text router. While a flow is
// in progress, free text is delivered here instead of command lookup, so
// amounts and method details reach the state machine first.
type Conversation struct {
	eng *flow.Engine
}

// NewConversation wraps the engine for the text router.
func NewConversation(eng *flow.Engine) Conversation {
	return Conversation{eng: eng}
}

func (cv Conversation) InProgress(chatID int64) bool {
	return cv.eng.InProgress(chatID)
}

func (cv Conversation) HandleText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	p, err := cv.eng.HandleText(ctx, chat.ID, c.Text())
	if rerr := render(c, p); rerr != nil {
		return rerr
	}
	return err
}
