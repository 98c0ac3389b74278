package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Supported storefront locales
const (
	LocaleEN = "en"
	LocaleAR = "ar"
)

const (
	// LangHeader lets clients pick a locale without a query parameter
	LangHeader = "X-Lang"
	localeKey  = "locale"
)

// Locale resolves the request locale from ?lang=, X-Lang and
// Accept-Language, in that order. Unsupported values fall through to the
// next source; the default is English.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := LocaleEN
		for _, candidate := range []string{
			c.Query("lang"),
			c.GetHeader(LangHeader),
			firstAcceptLanguage(c.GetHeader("Accept-Language")),
		} {
			if l, ok := supportedLocale(candidate); ok {
				locale = l
				break
			}
		}

		c.Set(localeKey, locale)
		c.Header("Content-Language", locale)
		c.Next()
	}
}

// GetLocale retrieves the request locale, defaulting to English
func GetLocale(c *gin.Context) string {
	if l := c.GetString(localeKey); l != "" {
		return l
	}
	return LocaleEN
}

func supportedLocale(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	// "ar-SA" and "en_US" select their base language
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}
	switch value {
	case LocaleEN, LocaleAR:
		return value, true
	}
	return "", false
}

func firstAcceptLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	return tag
}
