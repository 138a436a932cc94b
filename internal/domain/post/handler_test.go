package post

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realty/realty-api/internal/middleware"
	"github.com/realty/realty-api/internal/pkg/jwt"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func newTestRouter(f *fixture) (chi.Router, *jwt.Service) {
	jwtSvc := jwt.NewService("post-handler-secret", time.Hour)
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Mount("/api/v1/companies/{id}/posts", h.CompanyRoutes(middleware.Auth(jwtSvc)))
	r.Mount("/api/v1/posts", h.Routes())
	return r, jwtSvc
}

func perform(t *testing.T, r http.Handler, token, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func TestHandler_CreateSponsoredAndGet(t *testing.T) {
	f := newFixture(defaultCfg)
	f.seed(100, time.Now().AddDate(1, 0, 0))
	r, jwtSvc := newTestRouter(f)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), f.companyID, jwt.RoleCompanyAdmin)
	require.NoError(t, err)

	rr, resp := perform(t, r, token, http.MethodPost,
		"/api/v1/companies/"+f.companyID.String()+"/posts/sponsored",
		map[string]interface{}{"title": "Loft downtown", "body": "2 rooms", "sponsor_duration_days": 14})
	require.Equal(t, http.StatusCreated, rr.Code)

	var out SponsoredResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, 10, out.CreditsDeducted)
	assert.Equal(t, 90, out.RemainingBalance)
	assert.True(t, out.Post.IsSponsored)

	rr, resp = perform(t, r, "", http.MethodGet, "/api/v1/posts/"+out.Post.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got PostResponse
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Loft downtown", got.Title)
}

func TestHandler_CreateSponsoredInsufficient(t *testing.T) {
	f := newFixture(defaultCfg)
	f.seed(3, time.Now().AddDate(1, 0, 0))
	r, jwtSvc := newTestRouter(f)
	token, _ := jwtSvc.GenerateAccessToken(uuid.New(), f.companyID, jwt.RoleCompanyAdmin)

	rr, resp := perform(t, r, token, http.MethodPost,
		"/api/v1/companies/"+f.companyID.String()+"/posts/sponsored",
		map[string]interface{}{"title": "Loft downtown"})
	require.Equal(t, http.StatusPaymentRequired, rr.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_CREDITS", resp.Error.Code)
	assert.EqualValues(t, 10, resp.Error.Details["required"])
	assert.EqualValues(t, 3, resp.Error.Details["available"])
}

func TestHandler_CreateSponsoredValidation(t *testing.T) {
	f := newFixture(defaultCfg)
	r, jwtSvc := newTestRouter(f)
	token, _ := jwtSvc.GenerateAccessToken(uuid.New(), f.companyID, jwt.RoleCompanyAdmin)

	rr, resp := perform(t, r, token, http.MethodPost,
		"/api/v1/companies/"+f.companyID.String()+"/posts/sponsored",
		map[string]interface{}{"title": "ok", "sponsor_duration_days": 0})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestHandler_CreateSponsoredForbiddenForBrokers(t *testing.T) {
	f := newFixture(defaultCfg)
	r, jwtSvc := newTestRouter(f)
	token, _ := jwtSvc.GenerateAccessToken(uuid.New(), f.companyID, jwt.RoleBroker)

	rr, _ := perform(t, r, token, http.MethodPost,
		"/api/v1/companies/"+f.companyID.String()+"/posts/sponsored",
		map[string]interface{}{"title": "Loft downtown"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandler_GetUnknownPost(t *testing.T) {
	f := newFixture(defaultCfg)
	r, _ := newTestRouter(f)

	rr, resp := perform(t, r, "", http.MethodGet, "/api/v1/posts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}
