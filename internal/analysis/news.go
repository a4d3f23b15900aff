package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Keyword lexicons for headline/body scoring. Matches are counted per
// article and clamped so a single hyped article cannot dominate.
var bullishKeywords = []string{
	"beat", "beats", "record", "upgrade", "upgraded", "surge", "soars",
	"approval", "approved", "breakthrough", "partnership", "contract",
	"buyback", "raises guidance", "raised guidance", "expansion",
	"outperform", "strong demand",
}

var bearishKeywords = []string{
	"miss", "misses", "downgrade", "downgraded", "lawsuit", "investigation",
	"recall", "warning", "cuts guidance", "cut guidance", "bankruptcy",
	"dilution", "offering", "layoffs", "delisting", "halted", "fraud",
	"underperform",
}

const perArticleClamp = 2.0

// analyzeNews scores recent headlines against the keyword lexicons and
// classifies the dominant catalyst.
func (a *Aggregator) analyzeNews(ctx context.Context, symbol string) (NewsAnalysis, error) {
	articles, err := a.provider.GetNews(ctx, symbol, a.config.NewsLimit)
	if err != nil {
		return NewsAnalysis{}, fmt.Errorf("news for %s: %w", symbol, err)
	}

	result := NewsAnalysis{
		Symbol:    symbol,
		Catalyst:  CatalystNone,
		Freshness: "stale",
		Impact:    "low",
	}

	cutoff := time.Now().Add(-time.Duration(a.config.NewsWindowHours) * time.Hour)
	var newest time.Time
	catalystCounts := map[CatalystType]int{}

	for _, article := range articles {
		if article.PublishedAt.Before(cutoff) {
			continue
		}
		result.ArticleCount++
		if article.PublishedAt.After(newest) {
			newest = article.PublishedAt
		}

		text := strings.ToLower(article.Headline + " " + article.Body)

		score := 0.0
		for _, kw := range bullishKeywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		for _, kw := range bearishKeywords {
			if strings.Contains(text, kw) {
				score--
			}
		}
		// Vendor sentiment, when present, contributes alongside keywords.
		if article.Sentiment != nil {
			score += *article.Sentiment
		}
		if score > perArticleClamp {
			score = perArticleClamp
		} else if score < -perArticleClamp {
			score = -perArticleClamp
		}
		result.Sentiment += score

		if catalyst := classifyCatalyst(text); catalyst != CatalystGeneral {
			catalystCounts[catalyst]++
		} else {
			catalystCounts[CatalystGeneral]++
		}
	}

	if result.ArticleCount > 0 {
		result.Catalyst = dominantCatalyst(catalystCounts)

		age := time.Since(newest)
		switch {
		case age < 6*time.Hour:
			result.Freshness = "fresh"
		case age < 24*time.Hour:
			result.Freshness = "recent"
		}

		switch magnitude := result.Sentiment; {
		case magnitude >= 4 || magnitude <= -4:
			result.Impact = "high"
		case magnitude >= 2 || magnitude <= -2:
			result.Impact = "medium"
		}
	}

	return result, nil
}

func classifyCatalyst(text string) CatalystType {
	switch {
	case containsAny(text, "earnings", "quarterly results", "revenue", "eps", "guidance"):
		return CatalystEarnings
	case containsAny(text, "fda", "clinical trial", "phase 1", "phase 2", "phase 3", "drug approval"):
		return CatalystFDA
	case containsAny(text, "merger", "acquisition", "acquire", "buyout", "takeover"):
		return CatalystMerger
	case containsAny(text, "upgrade", "downgrade", "price target", "initiates coverage", "analyst"):
		return CatalystAnalyst
	default:
		return CatalystGeneral
	}
}

// dominantCatalyst prefers specific catalysts over "general" regardless of
// count, and breaks specific-vs-specific ties by count in a fixed order.
func dominantCatalyst(counts map[CatalystType]int) CatalystType {
	order := []CatalystType{CatalystEarnings, CatalystFDA, CatalystMerger, CatalystAnalyst}
	best := CatalystGeneral
	bestCount := 0
	for _, catalyst := range order {
		if counts[catalyst] > bestCount {
			best = catalyst
			bestCount = counts[catalyst]
		}
	}
	if best == CatalystGeneral && counts[CatalystGeneral] == 0 {
		return CatalystNone
	}
	return best
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
