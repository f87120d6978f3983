package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-gateway/internal/middleware"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r.Group("/api/v1"), Handlers{
		Lookups:     NewLookupHandler(&fakeLookupSrv{}),
		ExamResults: NewExamResultHandler(&fakeExamResultSrv{listing: &service.ExamResultListing{View: "flat"}}),
		Roster:      NewRosterHandler(&fakeRosterSrv{view: &service.RosterView{}}),
		Attendance:  NewAttendanceHandler(&fakeAttendanceSrv{view: &service.AttendanceView{}}),
		Periods:     NewPeriodHandler(nil),
	}, middleware.Claims(service.NewTokenService()))
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 3,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("issuer-secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutesRequireToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exam-results", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutesRoleGates(t *testing.T) {
	r := testRouter()
	cases := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{"student lists own results", http.MethodGet, "/api/v1/exam-results", "ROLE_STUDENT", http.StatusOK},
		{"student cannot record results", http.MethodPost, "/api/v1/exam-results", "ROLE_STUDENT", http.StatusForbidden},
		{"student cannot open attendance", http.MethodPost, "/api/v1/attendance-sessions", "ROLE_STUDENT", http.StatusForbidden},
		{"teacher opens attendance", http.MethodPost, "/api/v1/attendance-sessions", "ROLE_TEACHER", http.StatusCreated},
		{"teacher cannot edit periods", http.MethodDelete, "/api/v1/periods/4", "ROLE_TEACHER", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(""))
			req.Header.Set("Authorization", bearer(t, tc.role))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
