package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"referral-bot/internal/store"
)

func (b *Bot) handleAdminCallback(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	if !b.Cfg.IsAdmin(uid) {
		b.alert(ctx, q.ID, "Not allowed")
		return nil
	}

	data := q.Data
	switch {
	case data == "admin_panel":
		text, err := b.adminPanelText(ctx)
		if err != nil {
			log.Printf("Failed to build admin panel: %v", err)
			b.alert(ctx, q.ID, "Something went wrong. Try again later.")
			return nil
		}
		b.send(ctx, uid, text, adminPanelKB())

	case data == "admin_channels":
		if err := b.Store.SetWorkflowState(c, uid, store.WorkflowState{Kind: store.WorkflowAwaitChannels}); err != nil {
			log.Printf("Failed to set workflow state for %d: %v", uid, err)
		}
		b.send(ctx, uid,
			"📢 Send 5 channels (5 lines):\n<code>@ch1\n@ch2\n@ch3\n@ch4\n@ch5</code>",
			adminPanelKB())

	case data == "admin_rules":
		b.send(ctx, uid, "Select coupon type to change points:", tierChooseKB("admin_rule"))

	case strings.HasPrefix(data, "admin_rule:"):
		tier := strings.TrimPrefix(data, "admin_rule:")
		if err := b.Store.SetWorkflowState(c, uid, store.WorkflowState{Kind: store.WorkflowAwaitPrice, Tier: tier}); err != nil {
			log.Printf("Failed to set workflow state for %d: %v", uid, err)
		}
		b.send(ctx, uid, fmt.Sprintf("Send new points for %s (example 3):", store.TierLabel(tier)), adminPanelKB())

	case data == "admin_add_coupons":
		b.send(ctx, uid, "Select coupon type to add:", tierChooseKB("admin_add"))

	case strings.HasPrefix(data, "admin_add:"):
		tier := strings.TrimPrefix(data, "admin_add:")
		if err := b.Store.SetWorkflowState(c, uid, store.WorkflowState{Kind: store.WorkflowAwaitCodes, Tier: tier}); err != nil {
			log.Printf("Failed to set workflow state for %d: %v", uid, err)
		}
		b.send(ctx, uid, fmt.Sprintf("Send codes for %s one per line:", store.TierLabel(tier)), adminPanelKB())

	case data == "admin_remove_coupons":
		b.send(ctx, uid, "Select coupon type to remove:", tierChooseKB("admin_rem"))

	case strings.HasPrefix(data, "admin_rem:"):
		tier := strings.TrimPrefix(data, "admin_rem:")
		if err := b.Store.SetWorkflowState(c, uid, store.WorkflowState{Kind: store.WorkflowAwaitRemoval, Tier: tier}); err != nil {
			log.Printf("Failed to set workflow state for %d: %v", uid, err)
		}
		b.send(ctx, uid, fmt.Sprintf("Send how many unused coupons to remove from %s:", store.TierLabel(tier)), adminPanelKB())

	case data == "admin_stock":
		stock, err := b.Store.StockCounts(c)
		if err != nil {
			log.Printf("Failed to load stock: %v", err)
			b.alert(ctx, q.ID, "Something went wrong. Try again later.")
			return nil
		}
		text := "📦 <b>Stock</b>\n\n"
		for _, t := range store.Tiers {
			text += fmt.Sprintf("• %s = <b>%d</b>\n", store.TierLabel(t), stock[t])
		}
		b.send(ctx, uid, text, adminPanelKB())

	case data == "admin_redeems":
		entries, err := b.Store.RecentRedemptions(c, 20)
		if err != nil {
			log.Printf("Failed to load redeems log: %v", err)
			b.alert(ctx, q.ID, "Something went wrong. Try again later.")
			return nil
		}
		text := "📜 <b>Last 20 Redeems</b>\n\n"
		for i := range entries {
			e := &entries[i]
			text += fmt.Sprintf("• <b>%s</b> — %s — spent <b>%d</b>\n",
				e.DisplayName(), store.TierLabel(e.Tier), e.PointsSpent)
		}
		b.send(ctx, uid, text, adminPanelKB())
	}

	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) adminPanelText(ctx *th.Context) (string, error) {
	c := ctx.Context()
	channels, err := b.Store.Channels(c)
	if err != nil {
		return "", err
	}
	rules, err := b.Store.RedeemRules(c)
	if err != nil {
		return "", err
	}
	stock, err := b.Store.StockCounts(c)
	if err != nil {
		return "", err
	}

	text := "🛠 <b>Admin Panel</b>\n\n📢 <b>Force-Join Channels</b>:\n"
	for i, ch := range channels {
		if ch != "" {
			text += fmt.Sprintf("%d) <code>%s</code>\n", i+1, ch)
		}
	}
	text += "\n⚙️ <b>Redeem Points</b>:\n"
	for _, t := range store.Tiers {
		text += fmt.Sprintf("• %s = <b>%d</b> pts\n", store.TierLabel(t), rules[t].Points)
	}
	text += "\n📦 <b>Stock</b>:\n"
	for _, t := range store.Tiers {
		text += fmt.Sprintf("• %s = <b>%d</b>\n", store.TierLabel(t), stock[t])
	}
	return text, nil
}

// handleText interprets free-text input through the sender's workflow state.
// Non-admins and idle accounts just get the menu back.
func (b *Bot) handleText(ctx *th.Context, update telego.Update) error {
	message := update.Message
	from := message.From
	uid := from.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, from.Username, from.FirstName)

	acc, err := b.Store.GetAccount(c, uid)
	if err != nil {
		log.Printf("Failed to load account %d: %v", uid, err)
		return nil
	}
	ws := store.ParseWorkflowState(acc)
	if ws.Kind == store.WorkflowIdle || !b.Cfg.IsAdmin(uid) {
		b.send(ctx, uid, "Choose an option 👇", b.mainMenu(uid))
		return nil
	}

	text := strings.TrimSpace(message.Text)

	switch ws.Kind {
	case store.WorkflowAwaitChannels:
		lines := nonEmptyLines(text)
		if len(lines) < store.ChannelSlots {
			b.send(ctx, uid, "Send 5 lines:\n<code>@ch1\n@ch2\n@ch3\n@ch4\n@ch5</code>", nil)
			return nil
		}
		channels := make([]string, 0, store.ChannelSlots)
		for _, line := range lines[:store.ChannelSlots] {
			if !strings.HasPrefix(line, "@") {
				line = "@" + line
			}
			channels = append(channels, line)
		}
		if err := b.Store.SetChannels(c, channels); err != nil {
			log.Printf("Failed to set channels: %v", err)
			b.send(ctx, uid, "Something went wrong. Try again later.", nil)
			return nil
		}
		b.clearWorkflow(c, uid)
		b.send(ctx, uid, "✅ Channels updated!", adminPanelKB())

	case store.WorkflowAwaitPrice:
		points, ok := parseAmount(text)
		if !ok {
			b.send(ctx, uid, "Send number only (example: 3)", nil)
			return nil
		}
		if err := b.Store.SetTierPoints(c, ws.Tier, points); err != nil {
			log.Printf("Failed to set tier points: %v", err)
			b.send(ctx, uid, "Something went wrong. Try again later.", nil)
			return nil
		}
		b.clearWorkflow(c, uid)
		b.send(ctx, uid, "✅ Points updated!", adminPanelKB())

	case store.WorkflowAwaitCodes:
		added, err := b.Store.AddCoupons(c, ws.Tier, nonEmptyLines(text))
		if err != nil {
			log.Printf("Failed to add coupons: %v", err)
			b.send(ctx, uid, "Something went wrong. Try again later.", nil)
			return nil
		}
		b.clearWorkflow(c, uid)
		b.send(ctx, uid, fmt.Sprintf("✅ Added %d coupons to %s", added, store.TierLabel(ws.Tier)), adminPanelKB())

	case store.WorkflowAwaitRemoval:
		count, ok := parseAmount(text)
		if !ok {
			b.send(ctx, uid, "Send number (example: 10)", nil)
			return nil
		}
		removed, err := b.Store.RemoveUnusedCoupons(c, ws.Tier, int(count))
		if err != nil {
			log.Printf("Failed to remove coupons: %v", err)
			b.send(ctx, uid, "Something went wrong. Try again later.", nil)
			return nil
		}
		b.clearWorkflow(c, uid)
		b.send(ctx, uid, fmt.Sprintf("✅ Removed %d coupons from %s", removed, store.TierLabel(ws.Tier)), adminPanelKB())
	}

	return nil
}

func (b *Bot) clearWorkflow(ctx context.Context, uid int64) {
	if err := b.Store.ClearWorkflowState(ctx, uid); err != nil {
		log.Printf("Failed to clear workflow state for %d: %v", uid, err)
	}
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func digits(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// parseAmount extracts the digit run from admin input. Inputs with no digits
// or a value that does not fit int64 are rejected so the caller re-prompts
// instead of acting on a saturated number.
func parseAmount(text string) (int64, bool) {
	num := digits(text)
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
