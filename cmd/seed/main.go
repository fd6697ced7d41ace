package main

import (
	"time"

	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/logger"
	"github.com/cardvault/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Fatalf("Failed to init default admin: %v", err)
	}

	var productCount int64
	models.DB.Model(&models.Product{}).Count(&productCount)
	if productCount > 0 {
		stdLog.Println("Products already seeded, skip")
		return
	}

	// 演示商品
	products := []models.Product{
		{
			Title:          "Steam 充值卡 50 元",
			Description:    "国区 Steam 钱包充值码，面值 50 元，自动发货。",
			Price:          models.NewMoneyFromDecimal(decimal.NewFromFloat(48.50)),
			PaymentMethods: `["alipay","wxpay"]`,
			IsActive:       true,
			SortOrder:      100,
		},
		{
			Title:          "视频会员月卡",
			Description:    "主流视频平台会员兑换码，30 天有效期。",
			Price:          models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
			PaymentMethods: "",
			IsActive:       true,
			SortOrder:      90,
		},
		{
			Title:          "云服务器优惠码",
			Description:    "新用户专享优惠码，下单立减。",
			Price:          models.NewMoneyFromDecimal(decimal.NewFromFloat(9.90)),
			PaymentMethods: `["usdt"]`,
			IsActive:       false,
			SortOrder:      10,
		},
	}
	if err := models.DB.Create(&products).Error; err != nil {
		stdLog.Fatalf("Failed to seed products: %v", err)
	}

	// 演示卡密
	now := time.Now()
	secrets := []models.CardSecret{
		{ProductID: products[0].ID, Secret: "STEAM-XXXX-AAAA-1111", Status: constants.CardSecretStatusAvailable},
		{ProductID: products[0].ID, Secret: "STEAM-XXXX-BBBB-2222", Status: constants.CardSecretStatusAvailable},
		{ProductID: products[0].ID, Secret: "STEAM-XXXX-CCCC-3333", Status: constants.CardSecretStatusAvailable},
		{ProductID: products[1].ID, Secret: "VIP-MONTH-0001", Status: constants.CardSecretStatusAvailable},
		{ProductID: products[1].ID, Secret: "VIP-MONTH-0002", Status: constants.CardSecretStatusAvailable},
	}
	for i := range secrets {
		secrets[i].CreatedAt = now
		secrets[i].UpdatedAt = now
	}
	if err := models.DB.Create(&secrets).Error; err != nil {
		stdLog.Fatalf("Failed to seed card secrets: %v", err)
	}

	// 演示优惠券
	endsAt := now.AddDate(0, 1, 0)
	coupon := models.Coupon{
		Code:        "WELCOME10",
		Type:        constants.CouponTypePercent,
		Value:       models.NewMoneyFromInt(10),
		UsageLimit:  100,
		ScopeType:   constants.ScopeTypeProduct,
		ScopeRefIDs: "",
		StartsAt:    &now,
		EndsAt:      &endsAt,
		IsActive:    true,
	}
	if err := models.DB.Create(&coupon).Error; err != nil {
		stdLog.Fatalf("Failed to seed coupon: %v", err)
	}

	stdLog.Println("Seed completed")
}
