package usecase

import (
	"log"
	"sort"
	"strings"

	"github.com/cartcompare/backend/internal/domain"
)

// defaultMergeThreshold is the tuned name-similarity cutoff. Raise to be
// stricter, lower to merge more aggressively.
const defaultMergeThreshold = 0.65

// Similarity scores two normalized product names in [0, 1]. The merge
// control flow does not care which algorithm is behind it, so the threshold
// and the metric can be tuned or swapped independently.
type Similarity interface {
	Score(a, b string) float64
}

// TokenJaccard is intersection-over-union of whitespace token sets. Two
// empty token sets are vacuously similar (1); one empty and one non-empty
// set share nothing (0).
type TokenJaccard struct{}

func (TokenJaccard) Score(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	union := len(tb)
	for t := range ta {
		if tb[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// MergerConfig holds configuration for the near-duplicate merger.
type MergerConfig struct {
	Threshold          float64
	Similarity         Similarity
	EnableDebugLogging bool
}

// Merger folds near-duplicate product groups together and deduplicates
// listings per provider. All operations are total: a listing with an empty
// name or brand degenerates to empty-string normalization and takes the
// vacuous-compatibility paths instead of erroring.
type Merger struct {
	threshold          float64
	similarity         Similarity
	enableDebugLogging bool
}

// NewMerger creates a merger with the given configuration.
func NewMerger(config MergerConfig) *Merger {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = defaultMergeThreshold
	}
	sim := config.Similarity
	if sim == nil {
		sim = TokenJaccard{}
	}
	return &Merger{
		threshold:          threshold,
		similarity:         sim,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// BuildProductGroups is the composed grouping entry point: exact-key
// grouping first, then the near-duplicate merge pass. A fresh slice of
// groups is built on every call; the input is not mutated.
func (m *Merger) BuildProductGroups(listings []domain.Listing) []domain.ProductGroup {
	byKey := make(map[string]*domain.ProductGroup)
	var order []string

	for _, l := range listings {
		key := BuildProductKey(l)
		group, ok := byKey[key]
		if !ok {
			unit := NormalizeUnitLabel(l.Unit, l.Name)
			if unit == "" {
				unit = l.Unit
			}
			group = &domain.ProductGroup{
				Key:   key,
				Name:  l.Name,
				Brand: l.Brand,
				Unit:  unit,
			}
			byKey[key] = group
			order = append(order, key)
		}
		group.Listings = append(group.Listings, l)
	}

	groups := make([]domain.ProductGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}

	// sort by name so the merge scan is deterministic regardless of input order
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})

	return m.MergeGroups(groups)
}

// MergeGroups scans group pairs and folds near-duplicates together. A group
// j merges into an earlier base i when brands are compatible (equal, or
// either empty), raw unit fields match exactly (or both empty), and the
// normalized names clear the similarity threshold. Merged groups are
// excluded from further scanning. Every resulting group is then deduped to
// at most one listing per canonical provider, keeping the cheapest by raw
// price.
func (m *Merger) MergeGroups(groups []domain.ProductGroup) []domain.ProductGroup {
	merged := make([]domain.ProductGroup, 0, len(groups))
	used := make([]bool, len(groups))

	for i := range groups {
		if used[i] {
			continue
		}
		base := groups[i]
		base.Listings = append([]domain.Listing(nil), groups[i].Listings...)
		used[i] = true

		baseBrand := normalizeText(base.Brand)
		baseName := NormalizeProductName(base.Name, base.Brand)

		for j := i + 1; j < len(groups); j++ {
			if used[j] {
				continue
			}
			candBrand := normalizeText(groups[j].Brand)
			brandOK := baseBrand == "" || candBrand == "" || baseBrand == candBrand

			unitOK := strings.TrimSpace(base.Unit) == strings.TrimSpace(groups[j].Unit)

			candName := NormalizeProductName(groups[j].Name, groups[j].Brand)
			sim := m.similarity.Score(baseName, candName)

			if brandOK && unitOK && sim >= m.threshold {
				base.Listings = append(base.Listings, groups[j].Listings...)
				used[j] = true
				if m.enableDebugLogging {
					log.Printf("[MERGE] %q <= %q (sim=%.2f)", base.Name, groups[j].Name, sim)
				}
			}
		}

		base.Listings = dedupeByProvider(base.Listings)
		merged = append(merged, base)
	}

	return merged
}

// dedupeByProvider keeps one listing per canonical provider: the cheapest by
// raw price, since normalized prices may be absent for unmapped listings.
func dedupeByProvider(listings []domain.Listing) []domain.Listing {
	byProvider := make(map[string][]domain.Listing)
	var order []string

	for _, l := range listings {
		key := l.ProviderKey
		if key == "" {
			key = CanonicalProviderKey(l.Provider)
		}
		if _, ok := byProvider[key]; !ok {
			order = append(order, key)
		}
		byProvider[key] = append(byProvider[key], l)
	}

	deduped := make([]domain.Listing, 0, len(order))
	for _, key := range order {
		bucket := byProvider[key]
		chosen := bucket[0]
		for _, l := range bucket[1:] {
			if l.Price < chosen.Price {
				chosen = l
			}
		}
		deduped = append(deduped, chosen)
	}
	return deduped
}
