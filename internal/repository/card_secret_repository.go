package repository

import (
	"errors"
	"time"

	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"

	"gorm.io/gorm"
)

// CardSecretRepository 卡密库存数据访问接口
type CardSecretRepository interface {
	CreateBatch(items []models.CardSecret) error
	List(productID uint, status string, page, pageSize int) ([]models.CardSecret, int64, error)
	ListByOrder(orderID uint) ([]models.CardSecret, error)
	GetByID(id uint) (*models.CardSecret, error)
	PickAvailableIDs(productID uint, limit int) ([]uint, error)
	CountByProduct(productID uint) (int64, int64, error)
	CountAvailableByProductIDs(productIDs []uint) (map[uint]int64, error)
	Claim(ids []uint, orderID uint, claimedAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) CardSecretRepository
}

// GormCardSecretRepository GORM 实现
type GormCardSecretRepository struct {
	db *gorm.DB
}

// NewCardSecretRepository 创建卡密仓库
func NewCardSecretRepository(db *gorm.DB) *GormCardSecretRepository {
	return &GormCardSecretRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCardSecretRepository) WithTx(tx *gorm.DB) CardSecretRepository {
	if tx == nil {
		return r
	}
	return &GormCardSecretRepository{db: tx}
}

// CreateBatch 批量创建卡密
func (r *GormCardSecretRepository) CreateBatch(items []models.CardSecret) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// List 获取卡密列表，productID 为 0 时返回全量
func (r *GormCardSecretRepository) List(productID uint, status string, page, pageSize int) ([]models.CardSecret, int64, error) {
	query := r.db.Model(&models.CardSecret{})
	if productID > 0 {
		query = query.Where("product_id = ?", productID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var items []models.CardSecret
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByOrder 按订单获取已认领卡密
func (r *GormCardSecretRepository) ListByOrder(orderID uint) ([]models.CardSecret, error) {
	if orderID == 0 {
		return nil, errors.New("invalid order id")
	}
	var items []models.CardSecret
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取卡密
func (r *GormCardSecretRepository) GetByID(id uint) (*models.CardSecret, error) {
	var secret models.CardSecret
	if err := r.db.First(&secret, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &secret, nil
}

// PickAvailableIDs 挑选可认领卡密 ID，不保证具体挑中哪些
func (r *GormCardSecretRepository) PickAvailableIDs(productID uint, limit int) ([]uint, error) {
	if productID == 0 || limit <= 0 {
		return nil, nil
	}
	var ids []uint
	if err := r.db.Model(&models.CardSecret{}).
		Where("product_id = ? AND status = ?", productID, constants.CardSecretStatusAvailable).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByProduct 统计库存数量（总量/可用）
func (r *GormCardSecretRepository) CountByProduct(productID uint) (int64, int64, error) {
	if productID == 0 {
		return 0, 0, errors.New("invalid product id")
	}

	var total int64
	if err := r.db.Model(&models.CardSecret{}).
		Where("product_id = ?", productID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var available int64
	if err := r.db.Model(&models.CardSecret{}).
		Where("product_id = ? AND status = ?", productID, constants.CardSecretStatusAvailable).
		Count(&available).Error; err != nil {
		return 0, 0, err
	}
	return total, available, nil
}

// CountAvailableByProductIDs 批量统计可售库存
func (r *GormCardSecretRepository) CountAvailableByProductIDs(productIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if len(productIDs) == 0 {
		return result, nil
	}

	type countRow struct {
		ProductID uint
		Total     int64
	}

	var rows []countRow
	if err := r.db.Model(&models.CardSecret{}).
		Select("product_id, COUNT(*) as total").
		Where("product_id IN ? AND status = ?", productIDs, constants.CardSecretStatusAvailable).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ProductID] = row.Total
	}

	return result, nil
}

// Claim 认领卡密。条件更新保证每张卡密至多被一个订单认领：
// 只有 status 仍为 available 的行会被改写，返回实际改写行数由调用方核对。
func (r *GormCardSecretRepository) Claim(ids []uint, orderID uint, claimedAt time.Time) (int64, error) {
	if len(ids) == 0 || orderID == 0 {
		return 0, nil
	}
	if claimedAt.IsZero() {
		claimedAt = time.Now()
	}
	result := r.db.Model(&models.CardSecret{}).
		Where("id IN ? AND status = ?", ids, constants.CardSecretStatusAvailable).
		Updates(map[string]interface{}{
			"status":     constants.CardSecretStatusClaimed,
			"order_id":   orderID,
			"claimed_at": claimedAt,
			"updated_at": claimedAt,
		})
	return result.RowsAffected, result.Error
}
