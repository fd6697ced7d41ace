package public

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// getBuyerEmail 读取买家身份中间件写入的邮箱，未登录时返回空串。
func getBuyerEmail(c *gin.Context) string {
	value, exists := c.Get("buyer_email")
	if !exists {
		return ""
	}
	if email, ok := value.(string); ok {
		return strings.TrimSpace(email)
	}
	return ""
}
