package sync

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/g2a"
)

func wt(s string) g2a.WireTime {
	if s == "" {
		return g2a.WireTime{}
	}
	t, err := time.Parse(g2a.WireTimeFormat, s)
	if err != nil {
		panic(err)
	}
	return g2a.WireTime{Time: t}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleProducts() (source, destination g2a.Product) {
	source = g2a.Product{
		ID:       "p1",
		Name:     "Elden Ring",
		Slug:     "elden-ring",
		Qty:      50,
		MinPrice: dec("39.99"),
		Currency: "EUR",
		Images:   []string{"a.jpg", "b.jpg"},
		Categories: []g2a.Category{
			{ID: "rpg", Name: "RPG"},
		},
		UpdatedAt: wt("2026-08-20 10:00:00"),
	}
	destination = g2a.Product{
		ID:       "p1",
		Name:     "Elden Ring (EU)",
		Slug:     "elden-ring",
		Qty:      12,
		MinPrice: dec("44.99"),
		Currency: "EUR",
		Images:   []string{"b.jpg", "c.jpg"},
		Categories: []g2a.Category{
			{ID: "rpg", Name: "RPG"},
			{ID: "souls", Name: "Soulslike"},
		},
		UpdatedAt: wt("2026-08-19 10:00:00"),
	}
	return source, destination
}

func TestResolveSourceWins(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})

	res, err := r.ResolveProduct(src, dst, StrategySourceWins)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Resolved, src) {
		t.Error("source_wins must return the source copy unchanged")
	}
	if len(res.Changes) == 0 {
		t.Error("differing fields must be reported as changes")
	}
}

func TestResolveDestinationWins(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})

	res, err := r.ResolveProduct(src, dst, StrategyDestinationWins)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Resolved, dst) {
		t.Error("destination_wins must keep the local copy")
	}
	if len(res.Changes) != 0 {
		t.Errorf("changes = %v, want none", res.Changes)
	}
}

func TestResolveNewerWins(t *testing.T) {
	tests := []struct {
		name       string
		srcUpdated string
		dstUpdated string
		wantSource bool
	}{
		{"source newer", "2026-08-20 10:00:00", "2026-08-19 10:00:00", true},
		{"destination newer", "2026-08-19 10:00:00", "2026-08-20 10:00:00", false},
		{"equal timestamps favor source", "2026-08-20 10:00:00", "2026-08-20 10:00:00", true},
		{"both missing favor source", "", "", true},
		{"source missing treated as epoch", "", "2026-08-20 10:00:00", false},
	}

	r := NewResolver(MergePolicy{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := sampleProducts()
			src.UpdatedAt = wt(tt.srcUpdated)
			dst.UpdatedAt = wt(tt.dstUpdated)

			res, err := r.ResolveProduct(src, dst, StrategyNewerWins)
			if err != nil {
				t.Fatal(err)
			}
			want := dst
			if tt.wantSource {
				want = src
			}
			if !reflect.DeepEqual(res.Resolved, want) {
				t.Errorf("resolved the wrong copy (wantSource=%v)", tt.wantSource)
			}
		})
	}
}

func TestResolveMergePolicy(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})

	res, err := r.ResolveProduct(src, dst, StrategyMerge)
	if err != nil {
		t.Fatal(err)
	}

	// Critical fields take the source value.
	if res.Resolved.Name != src.Name {
		t.Errorf("name = %q, want source value %q", res.Resolved.Name, src.Name)
	}
	if res.Resolved.Qty != src.Qty || !res.Resolved.MinPrice.Equal(src.MinPrice) {
		t.Error("qty and minPrice must take the source value")
	}

	// Array fields are unioned, not overwritten.
	if !sameStringSet(res.Resolved.Images, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Errorf("images = %v, want union of both sides", res.Resolved.Images)
	}
	if len(res.Resolved.Categories) != 2 {
		t.Errorf("categories = %v, want both unique entries", res.Resolved.Categories)
	}

	// Everything else keeps the destination value.
	if !res.Resolved.UpdatedAt.Equal(dst.UpdatedAt.Time) {
		t.Error("non-policy fields must keep the destination value")
	}

	for _, want := range []string{"name", "qty", "minPrice", "images"} {
		found := false
		for _, ch := range res.Changes {
			if ch == want {
				found = true
			}
		}
		if !found {
			t.Errorf("changes %v missing %q", res.Changes, want)
		}
	}
}

func TestResolveMergeCustomPolicy(t *testing.T) {
	src, dst := sampleProducts()
	// Only qty is critical under this policy; name keeps destination.
	r := NewResolver(MergePolicy{Critical: []string{"qty"}})

	res, err := r.ResolveProduct(src, dst, StrategyMerge)
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolved.Qty != src.Qty {
		t.Error("qty should take source under custom policy")
	}
	if res.Resolved.Name != dst.Name {
		t.Error("name should keep destination under custom policy")
	}
}

func TestResolveManualRaisesConflict(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})

	_, err := r.ResolveProduct(src, dst, StrategyManual)
	if apierr.CodeOf(err) != apierr.CodeSyncConflict {
		t.Fatalf("code = %v, want SYNC_CONFLICT", apierr.CodeOf(err))
	}

	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatal("not a taxonomy error")
	}
	if ae.Context["source"] == nil || ae.Context["destination"] == nil {
		t.Error("conflict error must carry both versions")
	}
}

func TestResolveUnknownStrategy(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})
	if _, err := r.ResolveProduct(src, dst, Strategy("coin_flip")); err == nil {
		t.Fatal("unknown strategy accepted")
	}
}

func TestResolveDeterministic(t *testing.T) {
	src, dst := sampleProducts()
	r := NewResolver(MergePolicy{})

	first, err := r.ResolveProduct(src, dst, StrategyMerge)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.ResolveProduct(src, dst, StrategyMerge)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("identical inputs produced different resolutions")
		}
	}
}
