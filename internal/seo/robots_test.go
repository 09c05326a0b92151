// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

func TestRobotsBuilderBuild(t *testing.T) {
	tests := []struct {
		name        string
		config      RobotsConfig
		wantContain []string
		wantExclude []string
	}{
		{
			name:   "defaults",
			config: RobotsConfig{SiteURL: "https://example.com"},
			wantContain: []string{
				"User-agent: *",
				"Disallow: /admin\n",
				"Disallow: /api\n",
				"Allow: /\n",
				"Sitemap: https://example.com/sitemap.xml\n",
			},
		},
		{
			name:        "staging site",
			config:      RobotsConfig{SiteURL: "https://staging.example.com", DisallowAll: true},
			wantContain: []string{"User-agent: *", "Disallow: /\n"},
			wantExclude: []string{"Sitemap:", "Allow: /", "Disallow: /admin"},
		},
		{
			name: "region sitemaps",
			config: RobotsConfig{
				SiteURL:  "https://example.com/",
				Sitemaps: []string{"/sitemap.xml", "/fr/sitemap.xml"},
			},
			wantContain: []string{
				"Sitemap: https://example.com/sitemap.xml\n",
				"Sitemap: https://example.com/fr/sitemap.xml\n",
			},
			wantExclude: []string{"https://example.com//"},
		},
		{
			name:        "custom disallow paths",
			config:      RobotsConfig{SiteURL: "https://example.com", DisallowPaths: []string{"/private"}},
			wantContain: []string{"Disallow: /private\n", "Disallow: /admin\n"},
		},
		{
			name:        "extra rules without newline",
			config:      RobotsConfig{SiteURL: "https://example.com", ExtraRules: "Crawl-delay: 10"},
			wantContain: []string{"Crawl-delay: 10\n"},
		},
		{
			name:        "extra rules with newline",
			config:      RobotsConfig{SiteURL: "https://example.com", ExtraRules: "Crawl-delay: 10\n"},
			wantExclude: []string{"Crawl-delay: 10\n\n\n"},
		},
		{
			name:        "no site URL",
			config:      RobotsConfig{},
			wantExclude: []string{"Sitemap:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := NewRobotsBuilder(tt.config).Build()

			for _, want := range tt.wantContain {
				if !strings.Contains(content, want) {
					t.Errorf("Build() should contain %q, got:\n%s", want, content)
				}
			}
			for _, exclude := range tt.wantExclude {
				if strings.Contains(content, exclude) {
					t.Errorf("Build() should not contain %q, got:\n%s", exclude, content)
				}
			}
		})
	}
}
