// Package matching implements the bidirectional goal/deal matching engine:
// scoring, candidate selection, and the two match orchestrators.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dealradar/dealradar/internal/domain"
)

// =============================================================================
// MATCH SCORING WEIGHTS
// =============================================================================
// These weights implement a buyer-intent bias: where the deal price sits
// relative to the goal's budget matters more than how the listing is worded.
//
// Philosophy:
// - Price Range (30%): budget fit is WHY a goal exists
// - Discount (20%): a genuine markdown is the trigger worth alerting on
// - Category (20%): coarse relevance gate
// - Keywords (20%): the user's own words about what they want
// - Title Similarity (10%): weak signal, titles are noisy marketing text

const (
	// Main component weights (must sum to 1.0)
	WeightPriceRange      = 0.30
	WeightDiscount        = 0.20
	WeightCategory        = 0.20
	WeightKeywords        = 0.20
	WeightTitleSimilarity = 0.10

	// Discount percentage tiers
	DiscountTierHigh   = 50.0 // >= 50% off scores 1.0
	DiscountTierMedium = 30.0 // >= 30% off scores 0.8
	DiscountTierLow    = 15.0 // >= 15% off scores 0.6

	// Score for a real but small discount (below the low tier)
	discountScoreSmall = 0.3

	// Score for a partial (containment) category match
	categoryScorePartial = 0.7

	// Tokens this short are too ambiguous to use as derived keywords
	minKeywordLen = 3
)

// Component names used in MatchRecord.Components. Fixed order keeps
// reason lists deterministic.
const (
	ComponentPriceRange      = "price_range"
	ComponentDiscount        = "discount"
	ComponentCategory        = "category"
	ComponentKeywords        = "keywords"
	ComponentTitleSimilarity = "title_similarity"
)

// stopWords are discarded when deriving keywords from a goal title.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"for": true, "with": true, "new": true, "best": true, "buy": true,
	"get": true, "of": true, "to": true, "in": true, "on": true,
	"at": true, "my": true, "your": true, "any": true, "good": true,
	"cheap": true, "deal": true, "under": true,
}

// MatchResult is the outcome of scoring one goal against one deal
type MatchResult struct {
	Quality    domain.MatchQuality
	Reasons    []string
	Components map[string]float64
	Score      float64
}

// CalculateMatch computes the weighted multi-factor match score between one
// goal and one deal. It never errors: missing optional fields simply skip
// that scoring factor, and the weighted average renormalizes over the
// components that were actually scored. The same inputs always yield the
// same score and reasons.
func CalculateMatch(goal *domain.Goal, deal *domain.Deal) MatchResult {
	components := make(map[string]float64)
	var reasons []string
	weightedSum := 0.0
	weightUsed := 0.0

	// 1. PRICE RANGE (30%) - skipped when the goal has no price bounds
	if goal.HasPriceRange() {
		score, reason := scorePriceRange(goal, deal)
		components[ComponentPriceRange] = score
		weightedSum += score * WeightPriceRange
		weightUsed += WeightPriceRange
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// 2. DISCOUNT (20%) - only a genuine markdown counts
	if deal.HasDiscount() {
		score, reason := scoreDiscount(deal)
		components[ComponentDiscount] = score
		weightedSum += score * WeightDiscount
		weightUsed += WeightDiscount
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// 3. CATEGORY (20%) - skipped when either side lacks a category
	if goal.Category != "" && deal.Category != "" {
		score, reason := scoreCategory(goal.Category, deal.Category)
		components[ComponentCategory] = score
		weightedSum += score * WeightCategory
		weightUsed += WeightCategory
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// 4. KEYWORDS (20%) - explicit keywords, or derived from the goal title
	keywords := goalKeywords(goal)
	if len(keywords) > 0 {
		score, reason := scoreKeywords(keywords, deal)
		components[ComponentKeywords] = score
		weightedSum += score * WeightKeywords
		weightUsed += WeightKeywords
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// 5. TITLE SIMILARITY (10%) - skipped when either title has no tokens
	goalWords := tokenSet(goal.Title)
	dealWords := tokenSet(deal.Title)
	if len(goalWords) > 0 && len(dealWords) > 0 {
		score, reason := scoreTitleSimilarity(goalWords, dealWords)
		components[ComponentTitleSimilarity] = score
		weightedSum += score * WeightTitleSimilarity
		weightUsed += WeightTitleSimilarity
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// Renormalize over the weights actually used so skipped components
	// do not drag the average toward zero
	score := 0.0
	if weightUsed > 0 {
		score = weightedSum / weightUsed
	}
	score = math.Min(1.0, math.Max(0.0, score))

	return MatchResult{
		Score:      score,
		Quality:    domain.QualityForScore(score),
		Reasons:    reasons,
		Components: components,
	}
}

// scorePriceRange scores how the deal price sits relative to the goal's
// budget window. In-window is a perfect score; outside, the score decays
// linearly with the distance from the nearest bound, normalized by that
// bound, floored at zero.
func scorePriceRange(goal *domain.Goal, deal *domain.Deal) (float64, string) {
	min, max := *goal.PriceMin, *goal.PriceMax
	price := deal.Price

	if price >= min && price <= max {
		return 1.0, fmt.Sprintf("Price $%.2f is within your budget ($%.2f-$%.2f)", price, min, max)
	}

	var score float64
	if price > max && max > 0 {
		score = 1.0 - (price-max)/max
	} else if price < min && min > 0 {
		score = 1.0 - (min-price)/min
	}
	score = math.Max(0.0, score)

	if score == 0 {
		return 0, ""
	}
	return score, fmt.Sprintf("Price $%.2f is close to your budget ($%.2f-$%.2f)", price, min, max)
}

// scoreDiscount scores the markdown depth in tiers
func scoreDiscount(deal *domain.Deal) (float64, string) {
	pct := deal.DiscountPct()

	var score float64
	switch {
	case pct >= DiscountTierHigh:
		score = 1.0
	case pct >= DiscountTierMedium:
		score = 0.8
	case pct >= DiscountTierLow:
		score = 0.6
	default:
		score = discountScoreSmall
	}

	return score, fmt.Sprintf("%.0f%% off the original price of $%.2f", pct, *deal.OriginalPrice)
}

// scoreCategory compares categories case-insensitively: exact match is
// perfect, one containing the other is partial, anything else is zero
func scoreCategory(goalCategory, dealCategory string) (float64, string) {
	g := strings.ToLower(strings.TrimSpace(goalCategory))
	d := strings.ToLower(strings.TrimSpace(dealCategory))

	if g == d {
		return 1.0, fmt.Sprintf("Category matches %s", dealCategory)
	}
	if strings.Contains(g, d) || strings.Contains(d, g) {
		return categoryScorePartial, fmt.Sprintf("Category %s is related to %s", dealCategory, goalCategory)
	}
	return 0.0, ""
}

// goalKeywords returns the goal's explicit keywords, lower-cased, or
// derives them from the goal title when none were set
func goalKeywords(goal *domain.Goal) []string {
	if len(goal.Keywords) > 0 {
		keywords := make([]string, 0, len(goal.Keywords))
		for _, kw := range goal.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		return keywords
	}
	return deriveKeywords(goal.Title)
}

// deriveKeywords tokenizes a goal title into keywords, dropping stop
// words and tokens too short to be meaningful
func deriveKeywords(title string) []string {
	var keywords []string
	for _, token := range tokenize(title) {
		if len(token) < minKeywordLen || stopWords[token] {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// scoreKeywords scores the fraction of goal keywords found in the deal's
// title or description. Matching is plain substring containment - a short
// keyword like "pro" will also match inside "processor". That is noisy
// but deliberate: recall is preferred over precision for alerting.
func scoreKeywords(keywords []string, deal *domain.Deal) (float64, string) {
	haystack := strings.ToLower(deal.Title + " " + deal.Description)

	var matched []string
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}

	score := float64(len(matched)) / float64(len(keywords))
	if len(matched) == 0 {
		return 0, ""
	}
	return score, fmt.Sprintf("Matches your keywords: %s", strings.Join(matched, ", "))
}

// scoreTitleSimilarity scores the overlap of title word sets relative to
// the goal's word set
func scoreTitleSimilarity(goalWords, dealWords map[string]bool) (float64, string) {
	intersection := 0
	for word := range goalWords {
		if dealWords[word] {
			intersection++
		}
	}

	score := float64(intersection) / float64(len(goalWords))
	if score == 0 {
		return 0, ""
	}
	return score, "Deal title resembles your goal"
}

// tokenize splits text into lower-case alphanumeric tokens
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// tokenSet returns the set of tokens in text
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range tokenize(text) {
		set[token] = true
	}
	return set
}

// sortMatches orders match records by score descending, breaking ties by
// the counterpart id ascending for deterministic output
func sortMatches(records []domain.MatchRecord, byDealID bool) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		if byDealID {
			return records[i].DealID < records[j].DealID
		}
		return records[i].GoalID < records[j].GoalID
	})
}
