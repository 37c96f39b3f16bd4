// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package match ranks decrypted records against a runtime request context
// (calling package and/or web domain) for credential suggestion.
package match

import (
	"net/url"
	"sort"
	"strings"

	"github.com/okunev/passvault/models"
)

// Score weights. The ordering exact > subdomain > root > fuzzy and
// fuzzy > combo bonus > favorite bonus is load-bearing; the absolute values
// are not.
const (
	scoreExactDomain      = 100
	scorePackageMatch     = 80
	scoreSubdomain        = 70
	scoreRootDomain       = 50
	scoreFuzzy            = 30
	bonusPackageAndDomain = 20
	bonusFavorite         = 5
)

// Context describes where a credential request originated.
type Context struct {
	PackageID string
	WebDomain string
}

// Score rates rec against ctx. Zero means no relation; callers exclude
// zero-score records from suggestions.
func Score(rec models.PasswordRecord, ctx Context) int {
	score := 0
	domainMatched := false
	packageMatched := false

	ctxDomain := normalizeDomain(ctx.WebDomain)
	recDomain := ExtractDomain(rec.URL)

	if ctxDomain != "" && recDomain != "" {
		switch {
		case recDomain == ctxDomain:
			score += scoreExactDomain
			domainMatched = true
		case strings.HasSuffix(recDomain, "."+ctxDomain) || strings.HasSuffix(ctxDomain, "."+recDomain):
			score += scoreSubdomain
			domainMatched = true
		case rootDomain(recDomain) == rootDomain(ctxDomain):
			score += scoreRootDomain
			domainMatched = true
		case strings.Contains(recDomain, ctxDomain) || strings.Contains(ctxDomain, recDomain):
			score += scoreFuzzy
			domainMatched = true
		}
	}

	if ctx.PackageID != "" {
		for _, pkg := range rec.PackageNames {
			if pkg == ctx.PackageID {
				score += scorePackageMatch
				packageMatched = true
				break
			}
		}
	}

	if domainMatched && packageMatched {
		score += bonusPackageAndDomain
	}
	if score > 0 && rec.Favorite {
		score += bonusFavorite
	}

	return score
}

// FindMatches returns the records relevant to ctx, highest score first.
// Ties break by favorite flag, then record ID, so the order is
// deterministic for equal scores.
func FindMatches(records []models.PasswordRecord, ctx Context) []models.PasswordRecord {
	type scored struct {
		rec   models.PasswordRecord
		score int
	}

	matches := make([]scored, 0, len(records))
	for _, rec := range records {
		if s := Score(rec, ctx); s > 0 {
			matches = append(matches, scored{rec: rec, score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].rec.Favorite != matches[j].rec.Favorite {
			return matches[i].rec.Favorite
		}
		return matches[i].rec.ID < matches[j].rec.ID
	})

	out := make([]models.PasswordRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.rec)
	}
	return out
}

// ExtractDomain pulls the host out of a stored URL. Scheme-less input is
// assumed HTTPS. Never panics: unparseable input yields "" (no domain),
// falling back to a manual strip of scheme, path, and port when url.Parse
// cannot cope.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	if u, err := url.Parse(candidate); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname())
	}

	return manualExtract(raw)
}

// manualExtract strips scheme://, path, and :port by hand.
func manualExtract(raw string) string {
	host := raw
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		// Only strip when the suffix looks like a port, not an IPv6 literal.
		if !strings.Contains(host[i+1:], "]") {
			host = host[:i]
		}
	}
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" || strings.ContainsAny(host, " \t") {
		return ""
	}
	return host
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// rootDomain keeps the last two labels: www.github.com -> github.com. Good
// enough for matching; a public-suffix list is deliberately not consulted.
func rootDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) <= 2 {
		return domain
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
