package provider

import (
	"github.com/cardvault/internal/cache"
	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/logger"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/queue"
	"github.com/cardvault/internal/repository"
	"github.com/cardvault/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	OrderRepo      repository.OrderRepository
	CardSecretRepo repository.CardSecretRepository
	ProductRepo    repository.ProductRepository
	CouponRepo     repository.CouponRepository

	// Services
	AuthService       *service.AuthService
	CaptchaService    *service.CaptchaService
	ProductService    *service.ProductService
	CouponService     *service.CouponService
	OrderService      *service.OrderService
	CardSecretService *service.CardSecretService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CardSecretRepo = repository.NewCardSecretRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CardSecretRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo)
	c.CardSecretService = service.NewCardSecretService(c.CardSecretRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.CardSecretRepo,
		c.CouponRepo,
		c.CouponService,
		service.NewInventoryAllocator(c.CardSecretRepo),
		c.QueueClient,
		c.Config.Order,
	)
}
