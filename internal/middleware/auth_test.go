package middleware

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/ledger/internal/auth"
	"github.com/mmynk/ledger/internal/models"
)

type ping struct{}

func TestRequireAuth(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(&models.User{ID: "alice"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var seen string
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = GetUserID(ctx)
		return connect.NewResponse(&ping{}), nil
	}
	handler := RequireAuth(manager)(next)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{"valid token", "Bearer " + token, 0, "alice"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated, ""},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := handler(context.Background(), req)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
			} else if got := connect.CodeOf(err); got != tt.wantCode {
				t.Fatalf("expected code %v, got %v (%v)", tt.wantCode, got, err)
			}
			if seen != tt.wantUser {
				t.Errorf("expected owner %q in context, got %q", tt.wantUser, seen)
			}
		})
	}
}

func TestRecoverInterceptor(t *testing.T) {
	handler := RecoverInterceptor()(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		panic("boom")
	})
	_, err := handler(context.Background(), connect.NewRequest(&ping{}))
	if connect.CodeOf(err) != connect.CodeInternal {
		t.Errorf("expected CodeInternal, got %v", err)
	}
}
