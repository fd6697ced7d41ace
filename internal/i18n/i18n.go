package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cardvault/internal/constants"
)

// ResolveLocale 解析请求语言，优先级：lang 参数 > Accept-Language > 默认语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleZhCN
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := normalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return constants.LocaleZhCN
}

// T 按语言查找文案，缺失时回退默认语言，再缺失时返回 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if message, ok := catalog[key]; ok {
			return message
		}
	}
	if message, ok := catalogs[constants.LocaleZhCN][key]; ok {
		return message
	}
	return key
}

// Sprintf 查找带占位符的文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	for _, supported := range constants.SupportedLocales {
		if strings.EqualFold(tag, supported) {
			return supported
		}
	}
	base := strings.SplitN(tag, "-", 2)[0]
	for _, supported := range constants.SupportedLocales {
		if strings.EqualFold(base, strings.SplitN(supported, "-", 2)[0]) {
			return supported
		}
	}
	return ""
}
