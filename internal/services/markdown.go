package services

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"storefront_back_end/internal/models"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts a product description to sanitized HTML.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return sanitizer.Sanitize(src)
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}

// RenderDescriptions fills DescriptionHTML on every product in place.
func RenderDescriptions(products []models.Product) {
	for i := range products {
		products[i].DescriptionHTML = RenderMarkdown(products[i].Description)
	}
}
