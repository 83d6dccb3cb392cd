package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wyna/storefront/internal/platform/logging"
	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Error writes an {"error": ...} body. Server errors are logged with the
// request-scoped logger and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		Respond(w, status, map[string]string{"error": strings.ToLower(http.StatusText(status))})
		return
	}
	Respond(w, status, map[string]string{"error": err.Error()})
}

// Decode reads a JSON request body into v.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Page reads ?page= and ?limit= with the given default limit; limit is capped at 100.
func Page(r *http.Request, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// Paginated is the list envelope used by paged endpoints.
type Paginated struct {
	Data        interface{} `json:"data"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
	Total       int         `json:"total"`
}

func NewPaginated(data interface{}, page, limit, total int) Paginated {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Paginated{Data: data, CurrentPage: page, TotalPages: pages, Total: total}
}
