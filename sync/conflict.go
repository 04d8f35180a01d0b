package sync

import (
	"fmt"
	"sort"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/g2a"
)

// Strategy names a conflict resolution policy.
type Strategy string

const (
	// StrategySourceWins replaces the local copy unconditionally.
	StrategySourceWins Strategy = "source_wins"
	// StrategyDestinationWins keeps the local copy.
	StrategyDestinationWins Strategy = "destination_wins"
	// StrategyNewerWins compares updatedAt timestamps; a missing
	// timestamp counts as epoch zero and ties go to the source.
	StrategyNewerWins Strategy = "newer_wins"
	// StrategyMerge applies the field-level merge policy.
	StrategyMerge Strategy = "merge"
	// StrategyManual refuses to resolve and raises a sync conflict
	// carrying both versions.
	StrategyManual Strategy = "manual"
)

// MergePolicy is the configurable field table for StrategyMerge.
// Critical fields always take the source value when it differs; union
// fields are set-unioned rather than overwritten; every other field
// keeps the destination value.
type MergePolicy struct {
	Critical []string
	Union    []string
}

// DefaultMergePolicy covers the fields where the partner is
// authoritative: identity, naming, stock and pricing. Images and
// categories accumulate from both sides.
func DefaultMergePolicy() MergePolicy {
	return MergePolicy{
		Critical: []string{"id", "name", "slug", "qty", "minPrice", "currency"},
		Union:    []string{"images", "categories"},
	}
}

// Resolution is the outcome of resolving one conflict.
type Resolution struct {
	Resolved g2a.Product
	Strategy Strategy
	// Changes lists the canonical field names whose value in Resolved
	// differs from the destination, sorted for determinism.
	Changes []string
}

// Resolver reconciles partner and local copies of a resource. Pure:
// identical inputs and strategy always produce identical output.
type Resolver struct {
	policy MergePolicy
}

// NewResolver creates a resolver with the given merge policy. A zero
// policy falls back to the default table.
func NewResolver(policy MergePolicy) *Resolver {
	if len(policy.Critical) == 0 && len(policy.Union) == 0 {
		policy = DefaultMergePolicy()
	}
	return &Resolver{policy: policy}
}

// ResolveProduct resolves source (partner) against destination (local)
// under the strategy.
func (r *Resolver) ResolveProduct(source, destination g2a.Product, strategy Strategy) (Resolution, error) {
	switch strategy {
	case StrategySourceWins:
		return Resolution{
			Resolved: source,
			Strategy: strategy,
			Changes:  diffFields(source, destination),
		}, nil

	case StrategyDestinationWins:
		return Resolution{Resolved: destination, Strategy: strategy}, nil

	case StrategyNewerWins:
		// Missing timestamps are epoch zero; source wins ties.
		if !source.UpdatedAt.Before(destination.UpdatedAt.Time) {
			return Resolution{
				Resolved: source,
				Strategy: strategy,
				Changes:  diffFields(source, destination),
			}, nil
		}
		return Resolution{Resolved: destination, Strategy: strategy}, nil

	case StrategyMerge:
		return r.merge(source, destination), nil

	case StrategyManual:
		return Resolution{}, apierr.New(apierr.CodeSyncConflict, "manual strategy requires out-of-band resolution").
			WithContext("product_id", source.ID).
			WithContext("source", source).
			WithContext("destination", destination)

	default:
		return Resolution{}, apierr.New(apierr.CodeInvalidRequest, fmt.Sprintf("unknown conflict strategy %q", strategy))
	}
}

func (r *Resolver) merge(source, destination g2a.Product) Resolution {
	resolved := destination
	var changes []string

	for _, field := range r.policy.Critical {
		if copyField(&resolved, source, field) {
			changes = append(changes, field)
		}
	}
	for _, field := range r.policy.Union {
		if unionField(&resolved, source, field) {
			changes = append(changes, field)
		}
	}

	sort.Strings(changes)
	return Resolution{Resolved: resolved, Strategy: StrategyMerge, Changes: changes}
}

// copyField takes the source value for a critical field. Reports
// whether the destination value changed.
func copyField(dst *g2a.Product, src g2a.Product, field string) bool {
	switch field {
	case "id":
		if dst.ID != src.ID {
			dst.ID = src.ID
			return true
		}
	case "name":
		if dst.Name != src.Name {
			dst.Name = src.Name
			return true
		}
	case "slug":
		if dst.Slug != src.Slug {
			dst.Slug = src.Slug
			return true
		}
	case "qty":
		if dst.Qty != src.Qty {
			dst.Qty = src.Qty
			return true
		}
	case "minPrice":
		if !dst.MinPrice.Equal(src.MinPrice) {
			dst.MinPrice = src.MinPrice
			return true
		}
	case "currency":
		if dst.Currency != src.Currency {
			dst.Currency = src.Currency
			return true
		}
	case "platform":
		if dst.Platform != src.Platform {
			dst.Platform = src.Platform
			return true
		}
	case "region":
		if dst.Region != src.Region {
			dst.Region = src.Region
			return true
		}
	}
	return false
}

// unionField merges an array-valued field by identity instead of
// overwriting it.
func unionField(dst *g2a.Product, src g2a.Product, field string) bool {
	switch field {
	case "images":
		merged, changed := unionStrings(dst.Images, src.Images)
		dst.Images = merged
		return changed
	case "categories":
		merged, changed := unionCategories(dst.Categories, src.Categories)
		dst.Categories = merged
		return changed
	}
	return false
}

func unionStrings(dst, src []string) ([]string, bool) {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	changed := false
	for _, v := range src {
		if !seen[v] {
			dst = append(dst, v)
			seen[v] = true
			changed = true
		}
	}
	return dst, changed
}

func unionCategories(dst, src []g2a.Category) ([]g2a.Category, bool) {
	seen := make(map[string]bool, len(dst))
	for _, c := range dst {
		seen[c.ID] = true
	}
	changed := false
	for _, c := range src {
		if !seen[c.ID] {
			dst = append(dst, c)
			seen[c.ID] = true
			changed = true
		}
	}
	return dst, changed
}

// diffFields lists every canonical field whose value differs between
// the two copies, sorted.
func diffFields(a, b g2a.Product) []string {
	var fields []string
	add := func(name string, differs bool) {
		if differs {
			fields = append(fields, name)
		}
	}

	add("id", a.ID != b.ID)
	add("name", a.Name != b.Name)
	add("slug", a.Slug != b.Slug)
	add("qty", a.Qty != b.Qty)
	add("minPrice", !a.MinPrice.Equal(b.MinPrice))
	add("currency", a.Currency != b.Currency)
	add("platform", a.Platform != b.Platform)
	add("region", a.Region != b.Region)
	add("updatedAt", !a.UpdatedAt.Equal(b.UpdatedAt.Time))

	add("images", !sameStringSet(a.Images, b.Images))
	add("categories", !sameCategorySet(a.Categories, b.Categories))

	sort.Strings(fields)
	return fields
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func sameCategorySet(a, b []g2a.Category) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, c := range a {
		seen[c.ID] = true
	}
	for _, c := range b {
		if !seen[c.ID] {
			return false
		}
	}
	return true
}
