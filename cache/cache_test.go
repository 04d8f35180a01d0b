package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", "cache:products:abc123", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"newline", "a\nb", ErrInvalidKey},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v; want v, true", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) = hit, want miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry still served")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy sweep, want 0", c.Len())
	}
}

func TestMemoryCacheZeroTTLNotStored(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("zero TTL entry was stored")
	}
}

func TestMemoryCacheBounded(t *testing.T) {
	c := NewMemoryCache(Policy{DefaultTTL: time.Minute, MaxEntries: 3})
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(ctx, k, []byte(k), time.Minute)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (bounded)", c.Len())
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted entry still served")
	}
	// Idempotent.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete() = %v, want nil", err)
	}
}

func TestKeyerDeterministic(t *testing.T) {
	k := NewDefaultKeyer()

	a, err := k.Key("products", map[string]any{"page": 1, "minQty": 5})
	if err != nil {
		t.Fatal(err)
	}
	b, err := k.Key("products", map[string]any{"minQty": 5, "page": 1})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("key order changed hash: %q vs %q", a, b)
	}

	c, err := k.Key("products", map[string]any{"page": 2, "minQty": 5})
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Error("different params produced same key")
	}

	if !strings.HasPrefix(a, "cache:products:") {
		t.Errorf("key %q missing endpoint prefix", a)
	}
}

func TestReadThroughHitAndMiss(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) ([]byte, error) {
		fetches++
		return []byte("payload"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := rt.Do(ctx, "products.get", map[string]any{"id": "p1"}, fetch)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "payload" {
			t.Fatalf("Do() = %q, want payload", got)
		}
	}
	if fetches != 1 {
		t.Errorf("fetch invoked %d times, want 1", fetches)
	}
}

func TestReadThroughErrorsNotCached(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	ctx := context.Background()

	fetches := 0
	boom := errors.New("partner down")
	fetch := func(context.Context) ([]byte, error) {
		fetches++
		if fetches == 1 {
			return nil, boom
		}
		return []byte("ok"), nil
	}

	if _, err := rt.Do(ctx, "e", nil, fetch); !errors.Is(err, boom) {
		t.Fatalf("first Do() error = %v, want %v", err, boom)
	}
	got, err := rt.Do(ctx, "e", nil, fetch)
	if err != nil || string(got) != "ok" {
		t.Fatalf("second Do() = %q, %v; want ok, nil", got, err)
	}
	if fetches != 2 {
		t.Errorf("fetch invoked %d times, want 2", fetches)
	}
}

func TestReadThroughDisabled(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache(NoCachePolicy()), nil, NoCachePolicy())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) ([]byte, error) {
		fetches++
		return []byte("x"), nil
	}
	rt.Do(ctx, "e", nil, fetch)
	rt.Do(ctx, "e", nil, fetch)
	if fetches != 2 {
		t.Errorf("disabled cache fetched %d times, want 2", fetches)
	}
}

func TestReadThroughInvalidate(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) ([]byte, error) {
		fetches++
		return []byte("x"), nil
	}
	rt.Do(ctx, "e", "p", fetch)
	rt.Invalidate(ctx, "e", "p")
	rt.Do(ctx, "e", "p", fetch)
	if fetches != 2 {
		t.Errorf("fetch invoked %d times after Invalidate, want 2", fetches)
	}
}
