package bot

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"referral-bot/internal/store"
)

func (b *Bot) refLink(uid int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", b.Cfg.BotUsername, uid)
}

func (b *Bot) mainMenu(uid int64) *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Verify").WithCallbackData("verify"),
			tu.InlineKeyboardButton("📊 Stats").WithCallbackData("stats"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎟️ Redeem").WithCallbackData("redeem_menu"),
			tu.InlineKeyboardButton("🏆 Leaderboard").WithCallbackData("leaderboard"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔗 Referral Link").WithCallbackData("ref_link"),
		),
	}
	if b.Cfg.IsAdmin(uid) {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🛠 Admin Panel").WithCallbackData("admin_panel"),
		))
	}
	return tu.InlineKeyboard(rows...)
}

func adminPanelKB() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📢 Change Force-Join Channels").WithCallbackData("admin_channels"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⚙️ Change Redeem Points").WithCallbackData("admin_rules"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("➕ Add Coupons").WithCallbackData("admin_add_coupons"),
			tu.InlineKeyboardButton("➖ Remove Coupons").WithCallbackData("admin_remove_coupons"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📦 Coupons Stock").WithCallbackData("admin_stock"),
			tu.InlineKeyboardButton("📜 Redeems Log").WithCallbackData("admin_redeems"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ Back").WithCallbackData("back_menu"),
		),
	)
}

func tierChooseKB(prefix string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("500").WithCallbackData(prefix+":500"),
			tu.InlineKeyboardButton("1000").WithCallbackData(prefix+":1000"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("2000").WithCallbackData(prefix+":2000"),
			tu.InlineKeyboardButton("4000").WithCallbackData(prefix+":4000"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ Back").WithCallbackData("admin_panel"),
		),
	)
}

func redeemTiersKB() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(store.TierLabel("500")).WithCallbackData("redeem:500"),
			tu.InlineKeyboardButton(store.TierLabel("1000")).WithCallbackData("redeem:1000"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(store.TierLabel("2000")).WithCallbackData("redeem:2000"),
			tu.InlineKeyboardButton(store.TierLabel("4000")).WithCallbackData("redeem:4000"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ Back").WithCallbackData("back_menu"),
		),
	)
}

func joinVerifyKB(channels []string, verifyURL string) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Join "+ch).WithURL("https://t.me/"+strings.TrimPrefix(ch, "@")),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔐 Verify on Web").WithURL(verifyURL)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("✅ Check Verification").WithCallbackData("check_verification")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("⬅️ Back").WithCallbackData("back_menu")),
	)
	return tu.InlineKeyboard(rows...)
}

func (b *Bot) welcomeText(uid int64) string {
	return "🎉 <b>WELCOME!</b>\n\n" +
		"✅ Join all channels → Verify on website → Check Verification\n\n" +
		fmt.Sprintf("🔗 Your Referral Link:\n<code>%s</code>", b.refLink(uid))
}
