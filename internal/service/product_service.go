package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cardvault/internal/cache"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"github.com/shopspring/decimal"
)

// 公开商品详情缓存，短 TTL 容忍库存数短暂滞后
const publicProductCacheTTL = 60 * time.Second

func publicProductCacheKey(id uint) string {
	return fmt.Sprintf("product:detail:%d", id)
}

// ProductService 商品业务服务
type ProductService struct {
	repo       repository.ProductRepository
	secretRepo repository.CardSecretRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, secretRepo repository.CardSecretRepository) *ProductService {
	return &ProductService{repo: repo, secretRepo: secretRepo}
}

// SaveProductInput 创建/更新商品输入
type SaveProductInput struct {
	Title          string
	Description    string
	Price          decimal.Decimal
	PaymentMethods []string
	IsActive       *bool
	SortOrder      int
}

// ListPublic 公开商品列表，附带可售库存
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(repository.ProductListFilter{
		OnlyActive: true,
		Search:     search,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	if err := s.fillStock(products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetPublicByID 公开商品详情，下架商品视为不存在
func (s *ProductService) GetPublicByID(id uint) (*models.Product, error) {
	cacheKey := publicProductCacheKey(id)
	var cached models.Product
	if hit, err := cache.GetJSON(context.Background(), cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductUnavailable
	}
	_, available, err := s.secretRepo.CountByProduct(product.ID)
	if err != nil {
		return nil, err
	}
	product.StockAvailable = available
	_ = cache.SetJSON(context.Background(), cacheKey, product, publicProductCacheTTL)
	return product, nil
}

// ListAdmin 后台商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(repository.ProductListFilter{
		Search:   search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	if err := s.fillStock(products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetAdminByID 后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input SaveProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Price.LessThan(decimal.Zero) {
		return nil, ErrMalformedInput
	}
	methods, err := encodePaymentMethods(input.PaymentMethods)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Price:          models.Money{Decimal: input.Price.Round(2)},
		PaymentMethods: methods,
		IsActive:       isActive,
		SortOrder:      input.SortOrder,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input SaveProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductUnavailable
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || input.Price.LessThan(decimal.Zero) {
		return nil, ErrMalformedInput
	}
	methods, err := encodePaymentMethods(input.PaymentMethods)
	if err != nil {
		return nil, err
	}

	product.Title = title
	product.Description = strings.TrimSpace(input.Description)
	product.Price = models.Money{Decimal: input.Price.Round(2)}
	product.PaymentMethods = methods
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	_ = cache.Del(context.Background(), publicProductCacheKey(product.ID))
	return product, nil
}

// SetActive 上下架商品
func (s *ProductService) SetActive(id uint, isActive bool) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductUnavailable
	}
	product.IsActive = isActive
	if err := s.repo.Update(product); err != nil {
		return err
	}
	_ = cache.Del(context.Background(), publicProductCacheKey(product.ID))
	return nil
}

// fillStock 批量填充可售库存
func (s *ProductService) fillStock(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
	}
	counts, err := s.secretRepo.CountAvailableByProductIDs(ids)
	if err != nil {
		return err
	}
	for i := range products {
		products[i].StockAvailable = counts[products[i].ID]
	}
	return nil
}

// encodePaymentMethods 规整支付方式白名单并编码为 JSON 数组。
// 空列表存空串，表示不限制支付方式。
func encodePaymentMethods(methods []string) (string, error) {
	normalized := make([]string, 0, len(methods))
	seen := make(map[string]struct{}, len(methods))
	for _, method := range methods {
		method = strings.ToLower(strings.TrimSpace(method))
		if method == "" {
			continue
		}
		if !isRecognizedPaymentMethod(method) {
			return "", ErrPaymentMethodInvalid
		}
		if _, ok := seen[method]; ok {
			continue
		}
		seen[method] = struct{}{}
		normalized = append(normalized, method)
	}
	if len(normalized) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
