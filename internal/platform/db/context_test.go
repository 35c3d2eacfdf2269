package db

import (
	"context"
	"testing"
)

func TestConnFromContext_PoolFallback(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("expected nil without a pinned connection, got %v", conn)
	}
}

func TestConnFromContext_WrongValueType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not a connection")
	if conn := ConnFromContext(ctx); conn != nil {
		t.Errorf("expected nil for a mistyped value, got %v", conn)
	}
}
