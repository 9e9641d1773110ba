package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"referral-bot/internal/config"
	"referral-bot/internal/store"
)

type Bot struct {
	Instance *telego.Bot
	Store    *store.Store
	Cfg      *config.Config
}

func NewBot(cfg *config.Config, st *store.Store) (*Bot, error) {
	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance: tgBot,
		Store:    st,
		Cfg:      cfg,
	}, nil
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	handler.Handle(b.handleStart, th.CommandEqual("start"))
	handler.Handle(b.handleBackMenu, th.CallbackDataEqual("back_menu"))
	handler.Handle(b.handleVerify, th.CallbackDataEqual("verify"))
	handler.Handle(b.handleCheckVerification, th.CallbackDataEqual("check_verification"))
	handler.Handle(b.handleStats, th.CallbackDataEqual("stats"))
	handler.Handle(b.handleRefLink, th.CallbackDataEqual("ref_link"))
	handler.Handle(b.handleLeaderboard, th.CallbackDataEqual("leaderboard"))
	handler.Handle(b.handleRedeemMenu, th.CallbackDataEqual("redeem_menu"))
	handler.Handle(b.handleRedeem, th.CallbackDataPrefix("redeem:"))
	handler.Handle(b.handleAdminCallback, th.CallbackDataPrefix("admin"))
	handler.Handle(b.handleText, th.AnyMessageWithText())

	handler.Start()
}

// send delivers an HTML message, logging instead of failing the handler.
func (b *Bot) send(ctx *th.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) {
	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if kb != nil {
		msg = msg.WithReplyMarkup(kb)
	}
	if _, err := ctx.Bot().SendMessage(ctx.Context(), msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) answer(ctx *th.Context, queryID string) {
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(queryID))
}

func (b *Bot) alert(ctx *th.Context, queryID, text string) {
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(queryID).WithText(text).WithShowAlert())
}

func (b *Bot) upsertAccount(ctx context.Context, uid int64, username, firstName string) {
	if err := b.Store.UpsertAccount(ctx, uid, username, firstName); err != nil {
		log.Printf("Failed to upsert account %d: %v", uid, err)
	}
}

func (b *Bot) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	from := message.From
	uid := from.ID
	c := ctx.Context()

	b.upsertAccount(c, uid, from.Username, from.FirstName)

	// A numeric /start argument is the referrer's tg id.
	if parts := strings.Split(message.Text, " "); len(parts) > 1 {
		if ref, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64); err == nil {
			if err := b.Store.SetReferredBy(c, uid, ref); err != nil {
				log.Printf("Failed to set referrer for %d: %v", uid, err)
			}
		}
	}

	b.send(ctx, message.Chat.ID, b.welcomeText(uid), b.mainMenu(uid))
	return nil
}

func (b *Bot) handleBackMenu(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	b.upsertAccount(ctx.Context(), uid, q.From.Username, q.From.FirstName)
	b.send(ctx, uid, b.welcomeText(uid), b.mainMenu(uid))
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleVerify(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	allJoined, channels, _, err := b.CheckForceJoin(c, uid)
	if err != nil {
		log.Printf("Force-join check failed for %d: %v", uid, err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}

	token, err := b.Store.IssueVerifyToken(c, uid)
	if err != nil {
		log.Printf("Failed to issue verify token for %d: %v", uid, err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}
	verifyURL := fmt.Sprintf("%s/verify?token=%s", b.Cfg.PublicBaseURL, token)

	if !allJoined {
		b.send(ctx, uid,
			"⚠️ <b>Join all channels first.</b>\n\nThen verify on website and click Check Verification.",
			joinVerifyKB(channels, verifyURL))
	} else {
		b.send(ctx, uid,
			"✅ <b>Joined all channels!</b>\n\nNow verify on website and then click Check Verification.",
			joinVerifyKB(channels, verifyURL))
	}
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleCheckVerification(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	allJoined, channels, _, err := b.CheckForceJoin(c, uid)
	if err != nil {
		log.Printf("Force-join check failed for %d: %v", uid, err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}

	token, err := b.Store.IssueVerifyToken(c, uid)
	if err != nil {
		log.Printf("Failed to issue verify token for %d: %v", uid, err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}
	verifyURL := fmt.Sprintf("%s/verify?token=%s", b.Cfg.PublicBaseURL, token)

	if !allJoined {
		b.send(ctx, uid,
			"⚠️ <b>You haven't joined all channels.</b>\n\nJoin all and try again.",
			joinVerifyKB(channels, verifyURL))
		b.answer(ctx, q.ID)
		return nil
	}

	acc, err := b.Store.GetAccount(c, uid)
	if err != nil {
		log.Printf("Failed to load account %d: %v", uid, err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}
	if !acc.Verified {
		b.send(ctx, uid,
			"❌ <b>Not verified yet.</b>\n\nVerify on website then click Check Verification.",
			joinVerifyKB(channels, verifyURL))
		b.answer(ctx, q.ID)
		return nil
	}

	referrer, err := b.Store.AwardReferralIfNeeded(c, uid)
	if err == nil {
		b.Notify(c, referrer, fmt.Sprintf(
			"✅ <b>Referral Added!</b>\nYou got <b>+1</b> point because <b>%s</b> verified.",
			acc.DisplayName()))
	} else if !errors.Is(err, store.ErrNoAward) {
		log.Printf("Referral award failed for %d: %v", uid, err)
	}

	b.send(ctx, uid, "✅ <b>Verification Successful!</b>\n\nNow you can use the bot.", b.mainMenu(uid))
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleStats(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	acc, err := b.Store.GetAccount(c, uid)
	if err != nil {
		b.alert(ctx, q.ID, "User not found.")
		return nil
	}
	status := "❌ Not Verified"
	if acc.Verified {
		status = "✅ Verified"
	}
	text := "📊 <b>Your Stats</b>\n\n" +
		fmt.Sprintf("Status: <b>%s</b>\n", status) +
		fmt.Sprintf("Points: <b>%d</b>\n", acc.Points) +
		fmt.Sprintf("Referrals: <b>%d</b>\n\n", acc.Referrals) +
		fmt.Sprintf("🔗 Referral Link:\n<code>%s</code>", b.refLink(uid))
	b.send(ctx, uid, text, b.mainMenu(uid))
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleRefLink(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	b.upsertAccount(ctx.Context(), uid, q.From.Username, q.From.FirstName)
	b.send(ctx, uid,
		fmt.Sprintf("🔗 <b>Your Referral Link</b>\n\n<code>%s</code>", b.refLink(uid)),
		b.mainMenu(uid))
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleLeaderboard(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	top, err := b.Store.TopReferrers(c, 10)
	if err != nil {
		log.Printf("Failed to load leaderboard: %v", err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}
	text := "🏆 <b>Top 10 Leaderboard</b>\n\n"
	if len(top) == 0 {
		text += "No users yet."
	} else {
		for i, acc := range top {
			text += fmt.Sprintf("%d) <b>%s</b> — Referrals: <b>%d</b>\n", i+1, acc.DisplayName(), acc.Referrals)
		}
	}
	b.send(ctx, uid, text, b.mainMenu(uid))
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleRedeemMenu(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	acc, err := b.Store.GetAccount(c, uid)
	if err != nil {
		b.alert(ctx, q.ID, "User not found.")
		return nil
	}
	if !acc.Verified {
		b.alert(ctx, q.ID, "Verify first")
		return nil
	}

	rules, err := b.Store.RedeemRules(c)
	if err != nil {
		log.Printf("Failed to load redeem rules: %v", err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}
	stock, err := b.Store.StockCounts(c)
	if err != nil {
		log.Printf("Failed to load stock: %v", err)
		b.alert(ctx, q.ID, "Something went wrong. Try again later.")
		return nil
	}

	text := "🎟️ <b>Redeem Coupons</b>\n\n" +
		fmt.Sprintf("Your Points: <b>%d</b>\n\n", acc.Points)
	for _, t := range store.Tiers {
		text += fmt.Sprintf("• %s — Need <b>%d</b> — Stock <b>%d</b>\n",
			store.TierLabel(t), rules[t].Points, stock[t])
	}
	b.send(ctx, uid, text, redeemTiersKB())
	b.answer(ctx, q.ID)
	return nil
}

func (b *Bot) handleRedeem(ctx *th.Context, update telego.Update) error {
	q := update.CallbackQuery
	uid := q.From.ID
	c := ctx.Context()
	b.upsertAccount(c, uid, q.From.Username, q.From.FirstName)

	tier := strings.TrimPrefix(q.Data, "redeem:")
	result, err := b.Store.RedeemCoupon(c, uid, tier)
	if err != nil {
		b.alert(ctx, q.ID, redeemErrorMessage(err, tier))
		return nil
	}

	b.send(ctx, uid,
		"🎉 <b>Congratulations!</b>\n\n"+
			fmt.Sprintf("Your Coupon: <code>%s</code>\n", result.Code)+
			fmt.Sprintf("Points spent: <b>%d</b>", result.Spent),
		b.mainMenu(uid))
	b.answer(ctx, q.ID)

	if acc, err := b.Store.GetAccount(c, uid); err == nil {
		b.NotifyAdmins(c, fmt.Sprintf("🎟️ Redeem: %s (%d) got %s (spent %d)",
			acc.DisplayName(), uid, store.TierLabel(tier), result.Spent))
	}
	return nil
}

// redeemErrorMessage maps each expected redemption failure to its own
// user-visible message.
func redeemErrorMessage(err error, tier string) string {
	var ipErr *store.InsufficientPointsError
	switch {
	case errors.Is(err, store.ErrInvalidTier):
		return "Invalid option."
	case errors.Is(err, store.ErrNotFound):
		return "User not found."
	case errors.Is(err, store.ErrNotVerified):
		return "Please verify first."
	case errors.As(err, &ipErr):
		return fmt.Sprintf("Not enough points.\nRequired: %d\nYou have: %d", ipErr.Required, ipErr.Held)
	case errors.Is(err, store.ErrOutOfStock):
		return fmt.Sprintf("Out of stock for %s", store.TierLabel(tier))
	}
	log.Printf("Redeem failed: %v", err)
	return "Something went wrong. Try again later."
}
