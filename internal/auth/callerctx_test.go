package auth

import (
	"context"
	"testing"
)

func TestWithCaller_And_CallerFromCtx(t *testing.T) {
	t.Parallel()

	if c, ok := CallerFromCtx(context.Background()); ok || c != "" {
		t.Fatalf("expected no caller in empty ctx")
	}

	ctx := WithCaller(context.Background(), "user-1")
	got, ok := CallerFromCtx(ctx)
	if !ok || got != "user-1" {
		t.Fatalf("got %q ok=%v, want user-1", got, ok)
	}

	if _, ok := CallerFromCtx(WithCaller(context.Background(), "")); ok {
		t.Fatalf("empty caller must not count as authenticated")
	}

	type otherKey string
	bad := context.WithValue(context.Background(), otherKey("ngotes.caller"), "user-1")
	if _, ok := CallerFromCtx(bad); ok {
		t.Fatalf("expected miss on foreign key type")
	}
}
