package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pubdate-relay/internal/pipeline"
	"pubdate-relay/internal/pubdate"
)

type fixedLastModified struct{ t time.Time }

func (f fixedLastModified) LastModified(context.Context, string) (time.Time, error) {
	return f.t, nil
}

func newTestRouter(t *testing.T, fallback pipeline.LastModifiedSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := pipeline.DefaultConfig().Resolve
	cfg.Now = "2024-03-10 15:30"

	h := NewHandler(cfg, pubdate.New(), fallback)
	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Timezone != "JST" || resp.Unavailable != "取得不可" || resp.Fallback {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Rules) == 0 || resp.Rules[0] != "minutes-ago" {
		t.Errorf("rules = %v", resp.Rules)
	}
	if len(resp.Markers) != 3 || resp.Markers[2].Unit != "day" {
		t.Errorf("markers = %+v", resp.Markers)
	}
}

func TestResolveLabelsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/resolve", map[string]any{
		"labels": []string{"3時間前", "0:30", "不明"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}

	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Now != "2024/03/10 15:30" || resp.Resolved != 2 || resp.Unresolved != 1 {
		t.Errorf("resp = %+v", resp)
	}
	want := []string{"2024/03/10 12:30", "2024/03/10 00:30", "取得不可"}
	for i, w := range want {
		if resp.Results[i].PublishedAt != w {
			t.Errorf("results[%d] = %+v, want %s", i, resp.Results[i], w)
		}
	}
}

func TestResolveLabelsWithNow(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/resolve", map[string]any{
		"labels": []string{"0:30"},
		"now":    "2024-01-01T00:15:00+09:00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := resp.Results[0].PublishedAt; got != "2023/12/31 00:30" {
		t.Errorf("publishedAt = %s, want 2023/12/31 00:30", got)
	}
}

func TestResolveLabelsBadRequest(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"missing labels", map[string]any{}},
		{"bad now", map[string]any{"labels": []string{"1分前"}, "now": "someday"}},
		{"not json", "labels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/resolve", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestResolveArticlesEndpoint(t *testing.T) {
	lm := time.Date(2024, time.March, 5, 1, 0, 0, 0, time.UTC)
	r := newTestRouter(t, fixedLastModified{t: lm})

	w := doJSON(t, r, http.MethodPost, "/api/articles", map[string]any{
		"articles": []pipeline.Article{
			{Source: "MSN", Title: "a", URL: "https://example.com/a", Label: "2日前"},
			{Source: "MSN", Title: "a dup", URL: "https://example.com/a", Label: "1日前"},
			{Source: "MSN", Title: "b", URL: "https://example.com/b", Label: ""},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Now      string                     `json:"now"`
		Articles []pipeline.ResolvedArticle `json:"articles"`
		Resolved int                        `json:"resolved"`
		Skipped  int                        `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Resolved != 2 || resp.Skipped != 1 || len(resp.Articles) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if got := resp.Articles[0].PublishedAt; got != "2024/03/08 15:30" {
		t.Errorf("articles[0] = %s", got)
	}
	if got := resp.Articles[1]; got.PublishedAt != "2024/03/05 10:00" || !got.Fallback {
		t.Errorf("articles[1] = %+v", got)
	}
}

func TestServerCORSAndNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewHandler(pipeline.DefaultConfig().Resolve, nil, nil)
	s := NewServer(h, log, true)

	w := doJSON(t, s.Handler(), http.MethodOptions, "/api/resolve", nil)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("OPTIONS status = %d headers=%v", w.Code, w.Header())
	}

	w = doJSON(t, s.Handler(), http.MethodGet, "/nowhere", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestResolveArticlesHoursBack(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/articles", map[string]any{
		"articles": []pipeline.Article{
			{Title: "recent", URL: "https://example.com/recent", Label: "3時間前"},
			{Title: "old", URL: "https://example.com/old", Label: "3日前"},
		},
		"hoursBack": 24,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Articles []pipeline.ResolvedArticle `json:"articles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Articles) != 1 || resp.Articles[0].Title != "recent" {
		t.Errorf("articles = %+v", resp.Articles)
	}

	w = doJSON(t, r, http.MethodPost, "/api/articles", map[string]any{
		"articles":  []pipeline.Article{},
		"hoursBack": -1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
