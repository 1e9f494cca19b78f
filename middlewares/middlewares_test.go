package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/mmdatafocus/storefront_insights/utils"
)

func newAdminRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.GET("/admin", AdminMiddleware(secret), func(c *gin.Context) {
		isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		userID := 0
		if claim := CtxValue(c.Request.Context()); claim != nil {
			userID = claim.ID
		}
		c.JSON(http.StatusOK, gin.H{"admin": isAdmin, "cid": cid, "userId": userID})
	})
	return r
}

func doGet(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminMiddleware(t *testing.T) {
	r := newAdminRouter("s3cret")

	admin, _ := utils.JwtGenerate("s3cret", 1, utils.RoleAdmin, time.Hour)
	customer, _ := utils.JwtGenerate("s3cret", 2, "customer", time.Hour)
	forged, _ := utils.JwtGenerate("other", 1, utils.RoleAdmin, time.Hour)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"wrong role", "Bearer " + customer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusOK},
	}
	for _, tc := range cases {
		w := doGet(r, "Authorization", tc.header)
		if tc.header == "" {
			w = doGet(r, "", "")
		}
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}

	w := doGet(r, "Authorization", "Bearer "+admin)
	if !strings.Contains(w.Body.String(), `"userId":1`) || !strings.Contains(w.Body.String(), `"admin":true`) {
		t.Fatalf("expected admin claims in context, got %s", w.Body.String())
	}
}

func TestAdminMiddleware_DisabledWithoutSecret(t *testing.T) {
	w := doGet(newAdminRouter(""), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}

func TestCorrelationMiddleware(t *testing.T) {
	r := newAdminRouter("")

	w := doGet(r, CorrelationHeader, "req-42")
	if got := w.Header().Get(CorrelationHeader); got != "req-42" {
		t.Fatalf("expected caller id to be echoed, got %q", got)
	}

	w = doGet(r, "", "")
	if got := w.Header().Get(CorrelationHeader); len(got) != 36 {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
}

func TestRateLimiter_PassThroughWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(func() *redis.Client { return nil }, 1, time.Minute)
	r := gin.New()
	r.Use(rl.RateLimitMiddleware)
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := doGet(r, "", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected pass-through, got %d", i, w.Code)
		}
	}
}
