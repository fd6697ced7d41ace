package service

import (
	"fmt"
	"strings"
)

// OrderExport 订单卡密导出结果
type OrderExport struct {
	Filename string
	Content  string
}

// ExportOrderSecrets 导出订单已认领卡密为纯文本附件。
// 只要求订单存在，不做额外校验。
func (s *OrderService) ExportOrderSecrets(orderNo string) (*OrderExport, error) {
	order, err := s.GetOrderByNo(orderNo)
	if err != nil {
		return nil, err
	}

	secrets, err := s.secretRepo.ListByOrder(order.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		lines = append(lines, secret.Secret)
	}

	filename := fmt.Sprintf("secrets-%s-%s.txt", SanitizeExportFilename(order.ProductTitle), order.OrderNo)
	return &OrderExport{
		Filename: filename,
		Content:  strings.Join(lines, "\n"),
	}, nil
}

// SanitizeExportFilename 清理文件名中的路径与响应头不安全字符
func SanitizeExportFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '%', '*', ':', '|', '"', '<', '>':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = "order"
	}
	return cleaned
}
