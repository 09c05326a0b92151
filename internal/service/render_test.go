// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"strings"
	"testing"
)

func TestRenderBody(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "markdown",
			src:  "# Title\n\nSome **bold** text.",
			want: []string{"<h1", "Title</h1>", "<strong>bold</strong>"},
		},
		{
			name: "gfm table",
			src:  "| a | b |\n|---|---|\n| 1 | 2 |",
			want: []string{"<table>", "<td>1</td>"},
		},
		{
			name:    "script stripped",
			src:     "hello <script>alert(1)</script>",
			want:    []string{"hello"},
			notWant: []string{"<script", "alert(1)"},
		},
		{
			name:    "event handler stripped",
			src:     `<a href="https://example.com" onclick="steal()">link</a>`,
			want:    []string{`href="https://example.com"`, "link"},
			notWant: []string{"onclick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderBody(tt.src)
			if err != nil {
				t.Fatalf("RenderBody: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderBody() = %q, want it to contain %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("RenderBody() = %q, must not contain %q", got, w)
				}
			}
		})
	}
}

func TestRenderBody_Empty(t *testing.T) {
	got, err := RenderBody("   \n")
	if err != nil {
		t.Fatalf("RenderBody: %v", err)
	}
	if got != "" {
		t.Errorf("RenderBody(blank) = %q, want empty", got)
	}
}

func TestReadTime(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("word ", n))
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "1 min read"},
		{"short", "a few words", "1 min read"},
		{"exactly one minute", words(225), "1 min read"},
		{"just over", words(226), "2 min read"},
		{"long", words(1000), "5 min read"},
		{"tags ignored", "<p>" + strings.Repeat("<b>x</b> ", 226) + "</p>", "2 min read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadTime(tt.body); got != tt.want {
				t.Errorf("ReadTime() = %q, want %q", got, tt.want)
			}
		})
	}
}
