package bot

import (
	"context"
	"log"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Notify delivers a message outside any transaction. Delivery failure is
// logged and otherwise ignored; committed state never depends on it.
func (b *Bot) Notify(ctx context.Context, uid int64, text string) {
	_, err := b.Instance.SendMessage(ctx, tu.Message(tu.ID(uid), text).WithParseMode(telego.ModeHTML))
	if err != nil {
		log.Printf("Failed to notify %d: %v", uid, err)
	}
}

func (b *Bot) NotifyAdmins(ctx context.Context, text string) {
	for _, id := range b.Cfg.AdminIDs {
		b.Notify(ctx, id, text)
	}
}
