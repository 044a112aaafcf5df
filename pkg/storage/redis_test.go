package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// setupClientTest creates a miniredis instance and returns the client and cleanup function
func setupClientTest(t *testing.T) (*Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cfg := DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	client, err := NewClient(cfg)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestNewClient_InvalidURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "invalid://url"

	_, err := NewClient(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid Redis URL")
	}
}

func TestNewClient_ConnectionFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "redis://localhost:1" // nothing listens here

	_, err := NewClient(cfg)
	if err == nil {
		t.Fatal("Expected error when Redis is unreachable")
	}
}

func TestDenylist(t *testing.T) {
	client, mr, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	credential := "some-signed-credential"

	denied, err := client.IsDenied(ctx, credential)
	if err != nil {
		t.Fatalf("IsDenied failed: %v", err)
	}
	if denied {
		t.Error("Credential should not be denied before Deny")
	}

	if err := client.Deny(ctx, credential, time.Minute); err != nil {
		t.Fatalf("Deny failed: %v", err)
	}

	denied, err = client.IsDenied(ctx, credential)
	if err != nil {
		t.Fatalf("IsDenied failed: %v", err)
	}
	if !denied {
		t.Error("Credential should be denied after Deny")
	}

	// Entry expires with its TTL
	mr.FastForward(2 * time.Minute)
	denied, err = client.IsDenied(ctx, credential)
	if err != nil {
		t.Fatalf("IsDenied failed: %v", err)
	}
	if denied {
		t.Error("Denylist entry should expire with its TTL")
	}
}

func TestDeny_NonPositiveTTL(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	if err := client.Deny(ctx, "already-expired", -time.Minute); err != nil {
		t.Fatalf("Deny with non-positive TTL should be a no-op, got: %v", err)
	}

	denied, err := client.IsDenied(ctx, "already-expired")
	if err != nil {
		t.Fatalf("IsDenied failed: %v", err)
	}
	if denied {
		t.Error("No entry should be written for a non-positive TTL")
	}
}

func TestSwapRefresh(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	subject := "user-1"

	t.Run("swap of active credential succeeds", func(t *testing.T) {
		if err := client.SetRefresh(ctx, subject, "refresh-a", time.Hour); err != nil {
			t.Fatalf("SetRefresh failed: %v", err)
		}

		swapped, err := client.SwapRefresh(ctx, subject, "refresh-a", "refresh-b", time.Hour)
		if err != nil {
			t.Fatalf("SwapRefresh failed: %v", err)
		}
		if !swapped {
			t.Error("Swap of the active credential should succeed")
		}
	})

	t.Run("swap of superseded credential fails", func(t *testing.T) {
		swapped, err := client.SwapRefresh(ctx, subject, "refresh-a", "refresh-c", time.Hour)
		if err != nil {
			t.Fatalf("SwapRefresh failed: %v", err)
		}
		if swapped {
			t.Error("Swap of a superseded credential should fail")
		}
	})

	t.Run("swap without entry fails", func(t *testing.T) {
		swapped, err := client.SwapRefresh(ctx, "unknown-subject", "refresh-a", "refresh-b", time.Hour)
		if err != nil {
			t.Fatalf("SwapRefresh failed: %v", err)
		}
		if swapped {
			t.Error("Swap without a stored entry should fail")
		}
	})
}

func TestSwapRefresh_Concurrent(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	subject := "user-2"
	if err := client.SetRefresh(ctx, subject, "refresh-old", time.Hour); err != nil {
		t.Fatalf("SetRefresh failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			swapped, err := client.SwapRefresh(ctx, subject, "refresh-old", "refresh-new", time.Hour)
			if err != nil {
				t.Errorf("SwapRefresh failed: %v", err)
				return
			}
			results <- swapped
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for swapped := range results {
		if swapped {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("Exactly one concurrent swap should win, got %d", winners)
	}
}

func TestDeleteRefresh_Idempotent(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	if err := client.SetRefresh(ctx, "user-3", "refresh-x", time.Hour); err != nil {
		t.Fatalf("SetRefresh failed: %v", err)
	}
	if err := client.DeleteRefresh(ctx, "user-3"); err != nil {
		t.Fatalf("DeleteRefresh failed: %v", err)
	}
	if err := client.DeleteRefresh(ctx, "user-3"); err != nil {
		t.Fatalf("Second DeleteRefresh should succeed: %v", err)
	}
}

func TestIncrWindow(t *testing.T) {
	client, mr, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	key := "client-1:/v1/things"
	limit := 3
	window := time.Minute

	for i := 1; i <= limit; i++ {
		count, allowed, err := client.IncrWindow(ctx, key, limit, window)
		if err != nil {
			t.Fatalf("IncrWindow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("Request %d should be allowed", i)
		}
		if count != int64(i) {
			t.Errorf("Count after request %d = %d, want %d", i, count, i)
		}
	}

	// Fourth request in the same window is rejected
	_, allowed, err := client.IncrWindow(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("IncrWindow failed: %v", err)
	}
	if allowed {
		t.Error("Request past the limit should be rejected")
	}

	// A new window starts after the TTL elapses
	mr.FastForward(window + time.Second)
	count, allowed, err := client.IncrWindow(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("IncrWindow failed: %v", err)
	}
	if !allowed {
		t.Error("First request of a new window should be allowed")
	}
	if count != 1 {
		t.Errorf("New window count = %d, want 1", count)
	}
}

func TestIncrWindow_ConcurrentFirstRequests(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	key := "client-2:/v1/things"
	const workers = 10

	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, allowed, err := client.IncrWindow(ctx, key, 1, time.Minute)
			if err != nil {
				t.Errorf("IncrWindow failed: %v", err)
				return
			}
			results <- allowed
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for allowed := range results {
		if allowed {
			admitted++
		}
	}
	if admitted != 1 {
		t.Errorf("Exactly one concurrent first request should be admitted with limit 1, got %d", admitted)
	}
}

func TestWindowTTL(t *testing.T) {
	client, _, cleanup := setupClientTest(t)
	defer cleanup()
	ctx := context.Background()

	key := "client-3:/v1/things"

	ttl, err := client.WindowTTL(ctx, key)
	if err != nil {
		t.Fatalf("WindowTTL failed: %v", err)
	}
	if ttl != 0 {
		t.Errorf("TTL without a window = %v, want 0", ttl)
	}

	if _, _, err := client.IncrWindow(ctx, key, 5, time.Minute); err != nil {
		t.Fatalf("IncrWindow failed: %v", err)
	}

	ttl, err = client.WindowTTL(ctx, key)
	if err != nil {
		t.Fatalf("WindowTTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}
