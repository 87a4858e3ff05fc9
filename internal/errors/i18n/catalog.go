// Package i18n provides localized user-facing messages for domain error codes.
package i18n

import (
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Code mirrors the machine-readable error code as a plain string.
// Codes are duplicated here to avoid an import cycle with internal/errors.
type Code = string

// Catalog holds the localized message templates for one locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var catalogs = []*Catalog{enUSCatalog}

var matcher = language.NewMatcher(func() []language.Tag {
	tags := make([]language.Tag, 0, len(catalogs))
	for _, c := range catalogs {
		tags = append(tags, language.MustParse(c.locale))
	}
	return tags
}())

// GetCatalog returns the catalog best matching the requested locale,
// falling back to en-US.
func GetCatalog(locale string) *Catalog {
	requested, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return enUSCatalog
	}
	_, index, _ := matcher.Match(requested)
	if index < 0 || index >= len(catalogs) {
		return enUSCatalog
	}
	return catalogs[index]
}

// Locale returns the catalog locale identifier.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code, substituting metadata values.
// Unknown codes fall back to a generic message.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	message, ok := c.messages[code]
	if !ok {
		return "An unexpected error occurred"
	}
	if !strings.Contains(message, "{{") {
		return message
	}

	tmpl, err := template.New(code).Parse(message)
	if err != nil {
		return message
	}
	var builder strings.Builder
	if err := tmpl.Execute(&builder, metadata); err != nil {
		return message
	}
	return builder.String()
}
