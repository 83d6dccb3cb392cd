package contact_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/contact"
)

func TestHandler_SubmitAndTriage(t *testing.T) {
	h := contact.NewHandler(newService())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/api/admin", h.RegisterAdminRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodPost, "/api/contact",
		`{"name":"Asha Rao","email":"asha@example.com","subject":"Custom blouse","message":"Can you stitch a matching blouse?","category":"customization"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.MethodPost, "/api/contact", `{"name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodGet, "/api/admin/contacts/?category=customization", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data  []contact.Inquiry `json:"data"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	id := page.Data[0].ID.String()

	rec = do(http.MethodPut, "/api/admin/contacts/"+id+"/status", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"resolved"`)

	rec = do(http.MethodGet, "/api/admin/contacts/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/api/admin/contacts/00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
