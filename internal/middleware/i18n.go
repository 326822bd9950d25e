// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

var supportedLanguages = map[string]bool{
	"en":    true,
	"zh_TW": true,
}

// I18nMiddleware resolves the response language from the Accept-Language
// header and stores it in the request context.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "en"

		header := c.GetHeader("Accept-Language")
		if header != "" {
			// Take the first language tag, e.g. "zh-TW,zh;q=0.9"
			primary := strings.TrimSpace(strings.Split(header, ",")[0])
			primary = strings.ReplaceAll(primary, "-", "_")
			if supportedLanguages[primary] {
				lang = primary
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
