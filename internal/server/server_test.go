package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplanner/internal/advisor"
)

type stubAdvisor struct {
	err      error
	lastEval advisor.EvaluationRequest
}

func (s *stubAdvisor) SuggestLayout(_ context.Context, req advisor.LayoutRequest) (*advisor.LayoutSuggestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &advisor.LayoutSuggestion{
		Placements: []advisor.Placement{{FurnitureName: req.Furniture[0].Name, X: 0.5, Y: 0.5}},
		Reasoning:  "near the door",
	}, nil
}

func (s *stubAdvisor) Evaluate(_ context.Context, req advisor.EvaluationRequest) (*advisor.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastEval = req
	return &advisor.Evaluation{OverallAssessment: "good", Suggestions: []string{"add a rug"}}, nil
}

const layoutBody = `{"roomDimensions":{"width":4,"length":3},"furniture":[{"name":"Sofa","width":1.8,"length":0.9}]}`

func post(t *testing.T, s *Server, path, body string, header ...string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return resp, out
}

func TestHealthAndVersion(t *testing.T) {
	s := New(Config{}, nil)
	for _, path := range []string{"/health/live", "/health/ready", "/version"} {
		resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestSuggestLayoutRelaysAdvisorOutput(t *testing.T) {
	s := New(Config{}, &stubAdvisor{})
	resp, out := post(t, s, advisor.PathSuggestLayout, layoutBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "near the door", out["reasoning"])
	placements := out["layoutSuggestions"].([]any)
	require.Len(t, placements, 1)
	assert.Equal(t, "Sofa", placements[0].(map[string]any)["furnitureName"])
}

func TestEvaluateRelaysAdvisorOutput(t *testing.T) {
	stub := &stubAdvisor{}
	s := New(Config{}, stub)
	resp, out := post(t, s, advisor.PathEvaluateArrangement, `{"roomDimensions":"4m x 3m","furnitureArrangementDescription":"sofa by the window","userPreferences":"bright"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "good", out["overallAssessment"])
	assert.Equal(t, "bright", stub.lastEval.UserPreferences)
}

func TestInvalidBodiesAre400(t *testing.T) {
	s := New(Config{}, &stubAdvisor{})
	cases := map[string]string{
		"empty":        "",
		"not json":     "{",
		"no furniture": `{"roomDimensions":{"width":4,"length":3},"furniture":[]}`,
		"zero room":    `{"roomDimensions":{"width":0,"length":3},"furniture":[{"name":"Sofa","width":1,"length":1}]}`,
	}
	for name, body := range cases {
		resp, out := post(t, s, advisor.PathSuggestLayout, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		assert.NotEmpty(t, out["error"], name)
	}
	resp, _ := post(t, s, advisor.PathEvaluateArrangement, `{"roomDimensions":"4m x 3m"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdvisorErrorsMapToGatewayStatus(t *testing.T) {
	s := New(Config{}, &stubAdvisor{err: errors.New("upstream timeout")})
	resp, out := post(t, s, advisor.PathSuggestLayout, layoutBody)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream timeout", out["error"])

	s = New(Config{}, nil)
	resp, _ = post(t, s, advisor.PathSuggestLayout, layoutBody)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBearerAuth(t *testing.T) {
	secret := "s3cret"
	s := New(Config{JWTSecret: secret}, &stubAdvisor{})

	resp, _ := post(t, s, advisor.PathSuggestLayout, layoutBody)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, s, advisor.PathSuggestLayout, layoutBody, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "editor",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	resp, _ = post(t, s, advisor.PathSuggestLayout, layoutBody, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	resp, _ = post(t, s, advisor.PathSuggestLayout, layoutBody, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// health stays public
	hr, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, hr.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Config{EnableMetrics: true}, &stubAdvisor{})
	post(t, s, advisor.PathSuggestLayout, layoutBody)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "floorplanner_advisor_requests_total")

	off := New(Config{}, nil)
	resp, err = off.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
