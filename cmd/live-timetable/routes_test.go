package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/live-timetable-api/internal/handler"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/service"
)

func newRoutedEngine(enableExport bool) (*gin.Engine, *service.TokenVerifier) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenVerifier(service.AuthConfig{Secret: "routes-secret"})
	r := gin.New()
	registerRoutes(r.Group("/api/v1"), routeDeps{
		tokens:       tokens,
		timetable:    handler.NewTimetableHandler(nil, nil, nil),
		overrides:    handler.NewOverrideHandler(nil),
		absences:     handler.NewAbsenceHandler(nil),
		makeups:      handler.NewMakeupHandler(nil),
		events:       handler.NewSpecialEventHandler(nil),
		enableExport: enableExport,
	})
	return r, tokens
}

func TestRoutesRequireToken(t *testing.T) {
	r, _ := newRoutedEngine(true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/timetable/effective", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesKeepFacultyOutOfAdminActions(t *testing.T) {
	r, tokens := newRoutedEngine(true)
	token, err := tokens.Issue("faculty-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/timetable/moves/propose"},
		{http.MethodPost, "/api/v1/timetable/moves/commit"},
		{http.MethodPut, "/api/v1/timetable/overrides"},
		{http.MethodDelete, "/api/v1/timetable/overrides/ov-1"},
		{http.MethodPost, "/api/v1/timetable/absences"},
		{http.MethodPatch, "/api/v1/timetable/makeups/mk-1"},
		{http.MethodPost, "/api/v1/timetable/special-events"},
		{http.MethodGet, "/api/v1/timetable/export.pdf"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutesKeepAdminsOutOfSelfService(t *testing.T) {
	r, tokens := newRoutedEngine(true)
	token, err := tokens.Issue("admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/timetable/absences/self", "/api/v1/timetable/makeups/self"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestRoutesOmitExportWhenDisabled(t *testing.T) {
	r, tokens := newRoutedEngine(false)
	token, err := tokens.Issue("admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetable/export.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
