package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/api"
	"github.com/darkgooddack/notification-distribution/internal/auth"
	"github.com/darkgooddack/notification-distribution/internal/cache"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/service"
	"github.com/darkgooddack/notification-distribution/internal/token"
)

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, string, [][]byte) error { return nil }

func (stubPublisher) QueueDepth(string) (int, int, error) { return 0, 0, nil }

func (stubPublisher) Close() error { return nil }

// newTestRouter wires the full router over mocks. The token TTL is
// configurable so expired-token routes can be exercised end to end.
func newTestRouter(t *testing.T, ttl time.Duration) (http.Handler, *token.Manager, *cache.Memory) {
	t.Helper()

	users := repository.NewMockUserRepository()
	tokens := token.NewManager("test-secret", ttl)
	mem := cache.NewMemory()
	authSvc := auth.NewService(users, tokens, mem, zap.NewNop())

	notifSvc := service.NewNotificationService(
		repository.NewMockNotificationRepository(), users,
		stubPublisher{}, "notification.targets", zap.NewNop(), service.MetricHooks{},
	)

	_, err := authSvc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	router := api.NewRouter(authSvc, notifSvc, stubPublisher{}, "notification.targets",
		prometheus.NewRegistry(), zap.NewNop())
	return router, tokens, mem
}

func doLogout(router http.Handler, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_LogoutWithExpiredTokenSucceeds(t *testing.T) {
	router, tokens, mem := newTestRouter(t, -time.Minute)

	expired, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_ = mem.Set(context.Background(), "alice", expired, time.Minute)

	rec := doLogout(router, expired)
	if rec.Code != http.StatusOK {
		t.Fatalf("expired-token logout must return 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if mem.Len() != 0 {
		t.Fatal("expected the cached token to be deleted")
	}
}

func TestRouter_LogoutWithForgedTokenRejected(t *testing.T) {
	router, _, _ := newTestRouter(t, 30*time.Minute)

	forged, _ := token.NewManager("other-secret", 30*time.Minute).Issue("alice")
	if rec := doLogout(router, forged); rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged-token logout must return 401, got %d", rec.Code)
	}
}

func TestRouter_LogoutWithoutBearerRejected(t *testing.T) {
	router, _, _ := newTestRouter(t, 30*time.Minute)

	if rec := doLogout(router, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("logout without a bearer token must return 401, got %d", rec.Code)
	}
}

func TestRouter_ProtectedStillRejectsExpiredToken(t *testing.T) {
	router, tokens, _ := newTestRouter(t, -time.Minute)

	expired, _ := tokens.Issue("alice")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("guarded route must reject an expired token with 401, got %d", rec.Code)
	}
}
