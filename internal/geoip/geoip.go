// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip maps client IP addresses to countries using a MaxMind
// GeoLite2-Country database.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/blogify/internal/util"
)

// Local is returned by LookupCountry for private and loopback addresses.
const Local = "LOCAL"

// Lookup resolves IPs to ISO country codes. The zero value and a Lookup
// initialised with an empty path are disabled and never fail.
type Lookup struct {
	db          *maxminddb.Reader
	dbPath      string
	dbModTime   time.Time
	initialized bool
	enabled     bool
	mu          sync.RWMutex
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewLookup creates a disabled lookup; call Init to load a database.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init loads the database at dbPath. An empty path disables lookups.
func (g *Lookup) Init(dbPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.initialized = true
	g.dbPath = dbPath

	if dbPath == "" {
		g.enabled = false
		return nil
	}
	return g.loadDatabase()
}

// loadDatabase opens the database unless the file is unchanged.
// Caller must hold g.mu.
func (g *Lookup) loadDatabase() error {
	info, err := os.Stat(g.dbPath)
	if err != nil {
		g.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("GeoIP database not found: %s", g.dbPath)
		}
		return fmt.Errorf("GeoIP database stat error: %w", err)
	}

	if g.db != nil && info.ModTime().Equal(g.dbModTime) {
		return nil
	}

	db, err := maxminddb.Open(g.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open GeoIP database: %w", err)
	}

	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.dbModTime = info.ModTime()
	g.enabled = true
	return nil
}

// Reload reopens the database when the file has changed. A failed reload
// keeps the previously loaded database.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dbPath == "" {
		return nil
	}
	return g.loadDatabase()
}

// LookupCountry returns the ISO country code of ip, Local for private
// addresses and "" when unknown or disabled.
func (g *Lookup) LookupCountry(ip string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.initialized {
		return ""
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsPrivateIP(parsed) || parsed.IsLoopback() {
		return Local
	}
	if !g.enabled || g.db == nil {
		return ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// LookupRegion returns the country of ip as a region candidate. Local and
// unknown addresses report false.
func (g *Lookup) LookupRegion(ip string) (string, bool) {
	code := g.LookupCountry(ip)
	if code == "" || code == Local {
		return "", false
	}
	return code, true
}

// IsEnabled reports whether a database is loaded.
func (g *Lookup) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.enabled
}

// Close closes the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	g.enabled = false
	return err
}

var countryNames = map[string]string{
	Local: "Local Network",
	"US":  "United States",
	"GB":  "United Kingdom",
	"CA":  "Canada",
	"AU":  "Australia",
	"FR":  "France",
	"DE":  "Germany",
	"ES":  "Spain",
	"IT":  "Italy",
	"PT":  "Portugal",
	"SE":  "Sweden",
	"NO":  "Norway",
	"DK":  "Denmark",
	"FI":  "Finland",
	"BE":  "Belgium",
	"NL":  "Netherlands",
	"IE":  "Ireland",
	"LU":  "Luxembourg",
	"CH":  "Switzerland",
	"AT":  "Austria",
	"PL":  "Poland",
	"CZ":  "Czech Republic",
	"NZ":  "New Zealand",
	"JP":  "Japan",
	"IN":  "India",
	"BR":  "Brazil",
	"MX":  "Mexico",
}

// CountryName returns a display name for a country code.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
