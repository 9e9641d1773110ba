package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// CheckForceJoin reports whether the user belongs to every configured
// force-join channel. A failed membership lookup counts as not joined.
func (b *Bot) CheckForceJoin(ctx context.Context, uid int64) (bool, []string, []string, error) {
	channels, err := b.Store.Channels(ctx)
	if err != nil {
		return false, nil, nil, err
	}

	var notJoined []string
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		member, err := b.Instance.GetChatMember(ctx, &telego.GetChatMemberParams{
			ChatID: tu.Username(ch),
			UserID: uid,
		})
		if err != nil {
			// Bot not admin in the channel, or the channel is gone.
			notJoined = append(notJoined, ch)
			continue
		}
		switch member.MemberStatus() {
		case telego.MemberStatusLeft, telego.MemberStatusBanned:
			notJoined = append(notJoined, ch)
		}
	}
	return len(notJoined) == 0, channels, notJoined, nil
}
