package crypto

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/infrastructure/queue"
)

func TestScryptHasher_HashFormat(t *testing.T) {
	h := NewScryptHasher(nil)

	rec, err := h.Hash(context.Background(), "secretpw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	keyHex, saltHex, ok := strings.Cut(rec, ".")
	if !ok {
		t.Fatalf("record has no separator: %q", rec)
	}
	if len(keyHex) != keyBytes*2 {
		t.Errorf("expected %d hex chars of key, got %d", keyBytes*2, len(keyHex))
	}
	if len(saltHex) != saltBytes*2 {
		t.Errorf("expected %d hex chars of salt, got %d", saltBytes*2, len(saltHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		t.Errorf("key is not hex: %v", err)
	}
}

func TestScryptHasher_VerifyRoundTrip(t *testing.T) {
	h := NewScryptHasher(nil)
	ctx := context.Background()

	rec, err := h.Hash(ctx, "secretpw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify(ctx, "secretpw", rec) {
		t.Fatal("expected matching password to verify")
	}
	if h.Verify(ctx, "secretpx", rec) {
		t.Fatal("expected different password to be rejected")
	}
}

func TestScryptHasher_SaltsDiffer(t *testing.T) {
	h := NewScryptHasher(nil)
	ctx := context.Background()

	a, _ := h.Hash(ctx, "same")
	b, _ := h.Hash(ctx, "same")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestScryptHasher_MalformedRecords(t *testing.T) {
	h := NewScryptHasher(nil)
	ctx := context.Background()

	cases := []string{
		"",
		"nodot",
		".",
		"abcd.",
		".abcd",
		"zz-not-hex.00112233",
		"abcd.00112233", // key too short
	}
	for _, rec := range cases {
		if h.Verify(ctx, "anything", rec) {
			t.Errorf("record %q must not verify", rec)
		}
	}
}

func TestScryptHasher_OnPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := queue.NewPool(2, zerolog.Nop())
	pool.Start(ctx)
	defer pool.Stop()

	h := NewScryptHasher(pool)
	rec, err := h.Hash(ctx, "pooled")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify(ctx, "pooled", rec) {
		t.Fatal("expected pooled hash to verify")
	}
}

func TestScryptHasher_CancelledContext(t *testing.T) {
	h := NewScryptHasher(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	if _, err := h.Hash(ctx, "pw"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
