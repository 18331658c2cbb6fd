// Package i18n translates user-facing strings. Message files live in
// locales/ and are embedded into the binary.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var (
	bundle    *i18n.Bundle
	supported []language.Tag
	matcher   language.Matcher
)

// Init loads every embedded locale. lang is the fallback language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := path.Join("locales", e.Name())
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", name, err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", name, err)
		}
		slog.Debug("loaded locale file", "file", e.Name())
	}

	// The fallback goes first so the matcher prefers it on a tie.
	tags := []language.Tag{tag}
	for _, t := range b.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}
	bundle, supported, matcher = b, tags, language.NewMatcher(tags)
	return nil
}

// Languages returns the loaded languages, fallback first.
func Languages() []language.Tag {
	return supported
}

// Match picks the best loaded language for the preferences, which may be
// language tags or an Accept-Language header value.
func Match(prefs ...string) string {
	var want []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, tags...)
	}
	if matcher == nil {
		return "en"
	}
	_, idx, _ := matcher.Match(want...)
	base, _ := supported[idx].Base()
	return base.String()
}

// NewLocalizer creates a localizer for the languages, in preference order.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, langs...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// WithLang stores a localizer for lang in the context.
func WithLang(ctx context.Context, lang string) context.Context {
	return WithLocalizer(ctx, NewLocalizer(lang))
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return i18n.NewLocalizer(bundle)
}

func localize(ctx context.Context, cfg *i18n.LocalizeConfig) (string, bool) {
	s, err := localizerFromCtx(ctx).Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return "", false
	}
	return s, true
}

// T translates a message by ID. A missing message yields the ID.
func T(ctx context.Context, msgID string) string {
	if s, ok := localize(ctx, &i18n.LocalizeConfig{MessageID: msgID}); ok {
		return s
	}
	return msgID
}

// TOr translates a message by ID, or returns fallback.
func TOr(ctx context.Context, msgID, fallback string) string {
	if s, ok := localize(ctx, &i18n.LocalizeConfig{MessageID: msgID}); ok {
		return s
	}
	return fallback
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	if s, ok := localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data}); ok {
		return s
	}
	return msgID
}

// Tp translates a pluralized message. The count is available to the
// template as .Count.
func Tp(ctx context.Context, msgID string, count int) string {
	s, ok := localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if ok {
		return s
	}
	return msgID
}
