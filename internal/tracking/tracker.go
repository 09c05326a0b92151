// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package tracking

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/metrics"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/util"
)

// SessionCookieName is the cookie holding the anonymous visitor session.
const SessionCookieName = "blogify_session"

const sessionCookieTTL = 30 * time.Minute

// Store is the persistence the tracker writes to.
type Store interface {
	IncrementCounter(ctx context.Context, kind content.Kind, id int64, counter string) error
	IncrementAdCounter(ctx context.Context, id int64, counter string) error
	CreateVisitor(ctx context.Context, v *store.Visitor) error
}

// CountryLocator maps an IP to a country code.
type CountryLocator interface {
	LookupCountry(ip string) string
}

// Tracker records views, ad events and visitors through a Dispatcher.
type Tracker struct {
	d         *Dispatcher
	store     Store
	geo       CountryLocator
	trackBots bool
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCountryLocator fills visitor countries from IP addresses.
func WithCountryLocator(g CountryLocator) Option {
	return func(t *Tracker) { t.geo = g }
}

// WithBots records visitors whose user agent is a bot.
func WithBots(track bool) Option {
	return func(t *Tracker) { t.trackBots = track }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker.
func NewTracker(d *Dispatcher, s Store, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		d:      d,
		store:  s,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrackView counts a view of a: the article's views and its author's total.
func (t *Tracker) TrackView(a *content.Article) {
	articleID, authorID := a.ID, a.AuthorID
	t.d.Dispatch("article_view", func(ctx context.Context) error {
		if err := t.store.IncrementCounter(ctx, content.KindArticle, articleID, store.CounterViews); err != nil {
			return err
		}
		if authorID == 0 {
			return nil
		}
		return t.store.IncrementCounter(ctx, content.KindAuthor, authorID, store.CounterTotalViews)
	})
}

// TrackLike counts a like of the article.
func (t *Tracker) TrackLike(articleID int64) {
	t.d.Dispatch("article_like", func(ctx context.Context) error {
		return t.store.IncrementCounter(ctx, content.KindArticle, articleID, store.CounterLikes)
	})
}

// TrackAdImpression counts an impression of the ad.
func (t *Tracker) TrackAdImpression(adID int64) {
	metrics.AdEvents.WithLabelValues("impression").Inc()
	t.d.Dispatch("ad_impression", func(ctx context.Context) error {
		return t.store.IncrementAdCounter(ctx, adID, store.AdCounterImpressions)
	})
}

// TrackAdClick counts a click on the ad.
func (t *Tracker) TrackAdClick(adID int64) {
	metrics.AdEvents.WithLabelValues("click").Inc()
	t.d.Dispatch("ad_click", func(ctx context.Context) error {
		return t.store.IncrementAdCounter(ctx, adID, store.AdCounterClicks)
	})
}

// TrackVisit records a visitor for r. The request is read synchronously so
// the job does not touch it after the handler returns. articleID may be nil.
func (t *Tracker) TrackVisit(w http.ResponseWriter, r *http.Request, articleID *int64) {
	ua := useragent.Parse(r.UserAgent())
	if ua.Bot && !t.trackBots {
		return
	}

	v := &store.Visitor{
		IP:        util.ClientIP(r),
		Path:      r.URL.Path,
		Referrer:  r.Referer(),
		ArticleID: articleID,
		UserAgent: r.UserAgent(),
		Device:    deviceType(ua),
		Browser:   ua.Name,
		OS:        ua.OS,
		IsBot:     ua.Bot,
		SessionID: SessionID(w, r),
		CreatedAt: t.now(),
	}
	if res, ok := locale.FromContext(r.Context()); ok {
		v.Region = res.Region
		v.Language = res.Language
	}
	if t.geo != nil {
		v.Country = t.geo.LookupCountry(v.IP)
	}

	t.d.Dispatch("visitor", func(ctx context.Context) error {
		return t.store.CreateVisitor(ctx, v)
	})
}

// SessionID returns the visitor session from its cookie, starting a new
// session when there is none. The cookie expiry slides on every call.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	id := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}
