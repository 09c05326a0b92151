// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// WordsPerMinute is the reading speed behind ReadTime.
const WordsPerMinute = 225

// htmlSanitizer strips scripts, event handlers and other unsafe markup from
// rendered bodies and ad creatives.
var htmlSanitizer = bluemonday.UGCPolicy()

// textSanitizer removes every tag; used for word counts.
var textSanitizer = bluemonday.StrictPolicy()

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderBody converts a Markdown body (inline HTML allowed) to sanitized HTML.
func RenderBody(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(htmlSanitizer.Sanitize(buf.String())), nil
}

// SanitizeHTML cleans an HTML fragment.
func SanitizeHTML(s string) string {
	return htmlSanitizer.Sanitize(s)
}

// ReadTime estimates reading time of an HTML or Markdown body, e.g. "4 min read".
// It never reports less than one minute.
func ReadTime(body string) string {
	words := len(strings.Fields(textSanitizer.Sanitize(body)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
