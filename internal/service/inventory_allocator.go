package service

import (
	"time"

	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"gorm.io/gorm"
)

// InventoryAllocator 卡密库存分配器。claimed 标记的唯一写入方，
// 所有认领都走条件更新，多个并发调用永远不会拿到重叠的卡密集合。
type InventoryAllocator struct {
	secretRepo repository.CardSecretRepository
}

// NewInventoryAllocator 创建库存分配器
func NewInventoryAllocator(secretRepo repository.CardSecretRepository) *InventoryAllocator {
	return &InventoryAllocator{secretRepo: secretRepo}
}

// ClaimSpecific 认领指定卡密。卡密不存在或不属于该商品返回
// ErrCardSecretNotFound，已被其他订单认领返回 ErrCardSecretClaimed。
func (a *InventoryAllocator) ClaimSpecific(tx *gorm.DB, secretID, productID, orderID uint, now time.Time) (*models.CardSecret, error) {
	repo := a.secretRepo.WithTx(tx)

	secret, err := repo.GetByID(secretID)
	if err != nil {
		return nil, err
	}
	if secret == nil || secret.ProductID != productID {
		return nil, ErrCardSecretNotFound
	}

	affected, err := repo.Claim([]uint{secretID}, orderID, now)
	if err != nil {
		return nil, err
	}
	if affected != 1 {
		return nil, ErrCardSecretClaimed
	}

	secret.Status = constants.CardSecretStatusClaimed
	secret.OrderID = &orderID
	secret.ClaimedAt = &now
	return secret, nil
}

// ClaimN 为订单认领 n 张任意可用卡密，不保证具体是哪几张。
// 可用量不足 n 时返回 ErrInsufficientStock，不产生部分认领
// （调用方在事务内调用，失败即整体回滚）。
//
// 挑选和认领之间挑中的卡密可能被并发订单抢走，此时换一批继续。
// 每轮失败都意味着别的事务已提交认领走了至少一张，可用池单调缩小，
// 轮次以池子大小为上界；只有挑不满缺口才是真正的库存不足。
func (a *InventoryAllocator) ClaimN(tx *gorm.DB, productID uint, n int, orderID uint, now time.Time) ([]uint, error) {
	if n <= 0 {
		return nil, ErrMalformedInput
	}
	repo := a.secretRepo.WithTx(tx)

	claimed := make([]uint, 0, n)
	for len(claimed) < n {
		need := n - len(claimed)
		ids, err := repo.PickAvailableIDs(productID, need)
		if err != nil {
			return nil, err
		}
		if len(ids) < need {
			return nil, ErrInsufficientStock
		}
		affected, err := repo.Claim(ids, orderID, now)
		if err != nil {
			return nil, err
		}
		if affected == int64(len(ids)) {
			claimed = append(claimed, ids...)
			continue
		}
		// 有人抢先认领了部分卡密，找出真正归属本订单的那些再补挑。
		owned, err := repo.ListByOrder(orderID)
		if err != nil {
			return nil, err
		}
		claimed = claimed[:0]
		for _, secret := range owned {
			claimed = append(claimed, secret.ID)
		}
	}
	return claimed, nil
}
