package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/repository"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
)

func signedToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "T-01",
		"userId": 7,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("issuer-secret"))
	require.NoError(t, err)
	return token
}

func newRouter(roles ...models.UserRole) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	forwarded := new(string)
	r := gin.New()
	r.GET("/protected", Claims(service.NewTokenService()), RequireRoles(roles...), func(c *gin.Context) {
		*forwarded = repository.TokenFromContext(c.Request.Context())
		principal, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": principal.UserID})
	})
	return r, forwarded
}

func TestClaimsMiddleware(t *testing.T) {
	r, forwarded := newRouter(models.RoleAdmin, models.RoleTeacher)
	token := signedToken(t, "ROLE_TEACHER")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"7"}`, rec.Body.String())
	assert.Equal(t, token, *forwarded)
}

func TestClaimsMiddlewareRejects(t *testing.T) {
	r, _ := newRouter(models.RoleAdmin)
	cases := map[string]string{
		"missing":   "",
		"scheme":    "Basic abc",
		"malformed": "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRolesForbidden(t *testing.T) {
	r, _ := newRouter(models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "ROLE_STUDENT"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type recordedRequest struct {
	method, path string
	status       int
}

type requestRecorder struct {
	seen []recordedRequest
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.seen = append(r.seen, recordedRequest{method, path, status})
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &requestRecorder{}
	r := gin.New()
	r.Use(Metrics(recorder))
	r.GET("/roster-sessions/:sid", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/roster-sessions/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	require.Len(t, recorder.seen, 2)
	assert.Equal(t, recordedRequest{http.MethodGet, "/roster-sessions/:sid", http.StatusOK}, recorder.seen[0])
	assert.Equal(t, recordedRequest{http.MethodGet, "unmatched", http.StatusNotFound}, recorder.seen[1])
}
