package service

import (
	"strings"
	"time"

	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"
)

// CardSecretService 卡密库存服务（管理端录入与盘点）
type CardSecretService struct {
	secretRepo  repository.CardSecretRepository
	productRepo repository.ProductRepository
}

// NewCardSecretService 创建卡密库存服务
func NewCardSecretService(secretRepo repository.CardSecretRepository, productRepo repository.ProductRepository) *CardSecretService {
	return &CardSecretService{
		secretRepo:  secretRepo,
		productRepo: productRepo,
	}
}

// ImportCardSecretsInput 批量录入卡密输入
type ImportCardSecretsInput struct {
	ProductID uint
	Secrets   []string
}

// ImportCardSecrets 批量录入卡密，按行去空白、去重后入库，返回入库数量
func (s *CardSecretService) ImportCardSecrets(input ImportCardSecretsInput) (int, error) {
	if input.ProductID == 0 || len(input.Secrets) == 0 {
		return 0, ErrMalformedInput
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, ErrProductUnavailable
	}

	normalized := normalizeSecrets(input.Secrets)
	if len(normalized) == 0 {
		return 0, ErrMalformedInput
	}

	now := time.Now()
	items := make([]models.CardSecret, 0, len(normalized))
	for _, secret := range normalized {
		items = append(items, models.CardSecret{
			ProductID: input.ProductID,
			Secret:    secret,
			Status:    constants.CardSecretStatusAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.secretRepo.CreateBatch(items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// ListCardSecrets 卡密列表
func (s *CardSecretService) ListCardSecrets(productID uint, status string, page, pageSize int) ([]models.CardSecret, int64, error) {
	return s.secretRepo.List(productID, strings.TrimSpace(status), page, pageSize)
}

// CardSecretStats 卡密库存统计
type CardSecretStats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Claimed   int64 `json:"claimed"`
}

// StatCardSecrets 统计某商品卡密库存
func (s *CardSecretService) StatCardSecrets(productID uint) (*CardSecretStats, error) {
	total, available, err := s.secretRepo.CountByProduct(productID)
	if err != nil {
		return nil, err
	}
	return &CardSecretStats{
		Total:     total,
		Available: available,
		Claimed:   total - available,
	}, nil
}

// normalizeSecrets 去空白、去重，保持原始顺序
func normalizeSecrets(secrets []string) []string {
	seen := make(map[string]struct{}, len(secrets))
	normalized := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		if _, ok := seen[secret]; ok {
			continue
		}
		seen[secret] = struct{}{}
		normalized = append(normalized, secret)
	}
	return normalized
}
