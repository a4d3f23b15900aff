package secrets

import (
	"context"
	"testing"
)

func TestDisabledVaultUsesCache(t *testing.T) {
	client, err := NewClient(Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := client.Store(ctx, Credential{Name: "marketdata", Key: "k-123", Secret: "s-456"}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	credential, err := client.Get(ctx, "marketdata")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if credential.Key != "k-123" || credential.Secret != "s-456" {
		t.Errorf("unexpected credential %+v", credential)
	}

	if _, err := client.Get(ctx, "missing"); err == nil {
		t.Error("expected an error for a missing credential")
	}

	if err := client.Delete(ctx, "marketdata"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := client.Get(ctx, "marketdata"); err == nil {
		t.Error("deleted credential must not resolve")
	}

	if err := client.Health(ctx); err != nil {
		t.Errorf("disabled vault must report healthy, got %v", err)
	}
}
