package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"

	"referral-bot/internal/store"
)

// lowStockThreshold is the unused-coupon count at or below which admins get
// an alert for a tier.
const lowStockThreshold = 5

// Checker periodically inspects coupon stock and warns admins when a tier
// runs low. Redis keys keep a tier from being re-alerted every cycle.
type Checker struct {
	Store    *store.Store
	Redis    *redis.Client
	Bot      *telego.Bot
	AdminIDs []int64
}

func NewChecker(st *store.Store, rdb *redis.Client, bot *telego.Bot, adminIDs []int64) *Checker {
	return &Checker{
		Store:    st,
		Redis:    rdb,
		Bot:      bot,
		AdminIDs: adminIDs,
	}
}

func (c *Checker) Start() {
	ticker := time.NewTicker(1 * time.Hour)
	log.Println("Background stock worker started")

	// Run once at start
	c.checkStock()

	for range ticker.C {
		c.checkStock()
	}
}

func (c *Checker) checkStock() {
	ctx := context.Background()

	counts, err := c.Store.StockCounts(ctx)
	if err != nil {
		log.Printf("Error querying stock counts: %v", err)
		return
	}

	for _, tier := range store.Tiers {
		if counts[tier] > lowStockThreshold {
			continue
		}
		key := fmt.Sprintf("stock_alert_%s", tier)
		exists, err := c.Redis.Exists(ctx, key).Result()
		if err != nil {
			log.Printf("Redis error checking %s: %v", key, err)
			continue
		}
		if exists != 0 {
			continue
		}

		text := fmt.Sprintf("📦 Low stock: %s has %d unused coupons left.",
			store.TierLabel(tier), counts[tier])
		delivered := false
		for _, id := range c.AdminIDs {
			_, err := c.Bot.SendMessage(ctx, tu.Message(tu.ID(id), text))
			if err != nil {
				log.Printf("Failed to send stock alert to %d: %v", id, err)
				continue
			}
			delivered = true
		}
		if delivered {
			c.Redis.Set(ctx, key, "true", 24*time.Hour)
			log.Printf("Sent low-stock alert for tier %s (%d left)", tier, counts[tier])
		}
	}
}
