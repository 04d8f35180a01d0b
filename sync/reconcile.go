package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/keymarket/g2a-connect/g2a"
)

// FieldMismatch reports one field differing between matched records.
type FieldMismatch struct {
	ID          string
	Field       string
	Source      string
	Destination string
}

// ReconciliationResult reports snapshot integrity. Valid is true iff
// the counts match, the checksums match, and no field mismatch was
// found.
type ReconciliationResult struct {
	Valid bool

	SourceCount      int
	DestinationCount int
	CountsMatch      bool

	SourceChecksum      string
	DestinationChecksum string
	ChecksumsMatch      bool

	// MissingInDestination and MissingInSource list ids present on one
	// side only.
	MissingInDestination []string
	MissingInSource      []string

	Mismatches []FieldMismatch
}

// Checksum computes an order-independent checksum over the canonical
// field subset (id, name, price, quantity, updatedAt). Records are
// sorted by id before hashing, so shuffling the input never changes
// the result; changing any canonical field always does.
func Checksum(products []g2a.Product) string {
	sorted := append([]g2a.Product(nil), products...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, p := range sorted {
		io.WriteString(h, canonicalRow(p))
		io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalRow(p g2a.Product) string {
	updated := ""
	if !p.UpdatedAt.IsZero() {
		updated = p.UpdatedAt.UTC().Format(g2a.WireTimeFormat)
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s", p.ID, p.Name, p.MinPrice.String(), p.Qty, updated)
}

// Verify compares a partner snapshot against a local one. Counts are
// always checked; on checksum mismatch the matched-by-id pairs are
// walked for a field-level diff.
func Verify(source, destination []g2a.Product) ReconciliationResult {
	result := ReconciliationResult{
		SourceCount:         len(source),
		DestinationCount:    len(destination),
		SourceChecksum:      Checksum(source),
		DestinationChecksum: Checksum(destination),
	}
	result.CountsMatch = result.SourceCount == result.DestinationCount
	result.ChecksumsMatch = result.SourceChecksum == result.DestinationChecksum

	if !result.ChecksumsMatch {
		srcByID := make(map[string]g2a.Product, len(source))
		for _, p := range source {
			srcByID[p.ID] = p
		}
		dstByID := make(map[string]g2a.Product, len(destination))
		for _, p := range destination {
			dstByID[p.ID] = p
		}

		for _, p := range source {
			if _, ok := dstByID[p.ID]; !ok {
				result.MissingInDestination = append(result.MissingInDestination, p.ID)
			}
		}
		for _, p := range destination {
			src, ok := srcByID[p.ID]
			if !ok {
				result.MissingInSource = append(result.MissingInSource, p.ID)
				continue
			}
			result.Mismatches = append(result.Mismatches, diffCanonical(src, p)...)
		}
		sort.Strings(result.MissingInDestination)
		sort.Strings(result.MissingInSource)
	}

	result.Valid = result.CountsMatch && result.ChecksumsMatch && len(result.Mismatches) == 0
	return result
}

func diffCanonical(src, dst g2a.Product) []FieldMismatch {
	var out []FieldMismatch
	add := func(field, s, d string) {
		if s != d {
			out = append(out, FieldMismatch{ID: src.ID, Field: field, Source: s, Destination: d})
		}
	}

	add("name", src.Name, dst.Name)
	add("price", src.MinPrice.String(), dst.MinPrice.String())
	add("qty", fmt.Sprintf("%d", src.Qty), fmt.Sprintf("%d", dst.Qty))

	srcUpdated, dstUpdated := "", ""
	if !src.UpdatedAt.IsZero() {
		srcUpdated = src.UpdatedAt.UTC().Format(g2a.WireTimeFormat)
	}
	if !dst.UpdatedAt.IsZero() {
		dstUpdated = dst.UpdatedAt.UTC().Format(g2a.WireTimeFormat)
	}
	add("updatedAt", srcUpdated, dstUpdated)

	return out
}
