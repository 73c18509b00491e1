package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}

	if err := c.Set(ctx, "k", []byte("hello"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "hello" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}

	// Zero TTL never expires
	_ = c.Set(ctx, "forever", []byte("y"), 0)
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("bad")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared key should miss")
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root directory should survive Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type req struct {
		Measure string  `json:"measure"`
		Value   float64 `json:"value"`
	}
	a, err := HashJSON(req{"odds_ratio", 3.5})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := HashJSON(req{"odds_ratio", 3.5})
	c, _ := HashJSON(req{"risk_ratio", 3.5})
	if a != b {
		t.Error("equal requests should hash equally")
	}
	if a == c {
		t.Error("different requests should hash differently")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("unencodable value should error")
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.ResultKey("abc"); got != "result:abc" {
		t.Errorf("ResultKey = %q", got)
	}

	svg := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", Kind: "isotype"})
	png := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png", Kind: "isotype"})
	if !strings.HasPrefix(svg, "artifact:") {
		t.Errorf("ArtifactKey = %q, want artifact: prefix", svg)
	}
	if svg == png {
		t.Error("formats should produce distinct artifact keys")
	}

	scoped := NewScopedKeyer(nil, "api:v1:")
	if got := scoped.ResultKey("abc"); got != "api:v1:result:abc" {
		t.Errorf("scoped ResultKey = %q", got)
	}
	if got := scoped.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", Kind: "isotype"}); got != "api:v1:"+svg {
		t.Errorf("scoped ArtifactKey = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = time.Second })
	ctx := context.Background()

	t.Run("succeeds after retry", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 2 {
				return Retryable(ErrNetwork)
			}
			return nil
		})
		if err != nil || calls != 2 {
			t.Errorf("err=%v calls=%d, want nil and 2", err, calls)
		}
	})

	t.Run("permanent error stops", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return Retryable(ErrNetwork)
		})
		if !errors.Is(err, ErrNetwork) || calls != 3 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cctx, func() error { return Retryable(ErrNetwork) })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
