package catalog_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/catalog"
)

func newRouter() http.Handler {
	h := catalog.NewHandler(newService())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/api/admin", h.RegisterAdminRoutes)
	return r
}

func send(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ProductLifecycle(t *testing.T) {
	h := newRouter()

	rec := send(t, h, http.MethodPost, "/api/admin/categories", `{"name":"Sarees"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodPost, "/api/admin/products",
		`{"name":"Kanjivaram Silk","price":"1500","stock":3,"status":"published","tags":["silk"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = send(t, h, http.MethodPost, "/api/admin/products", `{"name":"Draft Ikat","price":"900"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []catalog.Product `json:"data"`
		Total      int               `json:"total"`
		TotalPages int               `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "kanjivaram-silk", page.Data[0].Slug)

	rec = send(t, h, http.MethodGet, "/api/admin/products", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)

	rec = send(t, h, http.MethodGet, "/api/products/draft-ikat", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(t, h, http.MethodGet, "/api/products?category=unknown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"current_page":1,"total_pages":0,"total":0}`, rec.Body.String())

	rec = send(t, h, http.MethodDelete, "/api/admin/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(t, h, http.MethodGet, "/api/products/kanjivaram-silk", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ErrorStatuses(t *testing.T) {
	h := newRouter()

	rec := send(t, h, http.MethodPost, "/api/admin/products", `{"price":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPost, "/api/admin/categories", `{"name":"Sarees"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = send(t, h, http.MethodPost, "/api/admin/categories", `{"name":"Sarees"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(t, h, http.MethodPut, "/api/admin/products/not-a-uuid", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(t, h, http.MethodPost, "/api/admin/products", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
