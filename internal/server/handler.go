package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pubdate-relay/internal/pipeline"
	"pubdate-relay/internal/pubdate"
)

// Handler は投稿日解決APIの処理器
type Handler struct {
	resolver    *pubdate.Resolver
	resolveCfg  pipeline.ResolveConfig
	unavailable string
	fallback    pipeline.LastModifiedSource
}

// NewHandler はAPI処理器を生成する
//
// fallback が nil の場合、/api/articles は Last-Modified 補完を行わない。
func NewHandler(cfg pipeline.ResolveConfig, resolver *pubdate.Resolver, fallback pipeline.LastModifiedSource) *Handler {
	if resolver == nil {
		resolver = pubdate.New()
	}
	unavailable := cfg.Unavailable
	if unavailable == "" {
		unavailable = pubdate.Unavailable
	}
	return &Handler{
		resolver:    resolver,
		resolveCfg:  cfg,
		unavailable: unavailable,
		fallback:    fallback,
	}
}

// RegisterRoutes はAPIルートを登録する
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 状態
	router.GET("/status", h.GetStatus)

	// 解決
	router.POST("/resolve", h.ResolveLabels)
	router.POST("/articles", h.ResolveArticles)
}

// referenceTime はリクエストの now（省略時は設定の基準時刻）を返す
func (h *Handler) referenceTime(now string) (time.Time, error) {
	if now == "" {
		return h.resolveCfg.ReferenceTime()
	}
	loc, err := h.resolveCfg.Location()
	if err != nil {
		return time.Time{}, err
	}
	return pipeline.ParseNow(now, loc)
}

// -----------------------------------------------------------------------------
// GET /api/status
// -----------------------------------------------------------------------------

// MarkerView はマーカーテーブルの1行
type MarkerView struct {
	Unit  string   `json:"unit"`
	Words []string `json:"words"`
}

// StatusResponse はサービス状態のレスポンス
type StatusResponse struct {
	Status      string       `json:"status"`
	Timezone    string       `json:"timezone"`
	Unavailable string       `json:"unavailable"`
	Fallback    bool         `json:"fallback"`    // Last-Modified 補完が有効か
	Rules       []string     `json:"rules"`       // 優先順位順
	Markers     []MarkerView `json:"markers"`
}

// GetStatus はリゾルバの設定を返す
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	rules := h.resolver.Rules()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, string(r))
	}

	markers := h.resolver.Markers()
	views := make([]MarkerView, 0, len(markers))
	for _, m := range markers {
		views = append(views, MarkerView{Unit: m.Unit.String(), Words: m.Words})
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:      "ok",
		Timezone:    h.resolveCfg.Timezone,
		Unavailable: h.unavailable,
		Fallback:    h.fallback != nil,
		Rules:       names,
		Markers:     views,
	})
}

// -----------------------------------------------------------------------------
// POST /api/resolve
// -----------------------------------------------------------------------------

// ResolveRequest はラベル解決のリクエスト
type ResolveRequest struct {
	Labels []string `json:"labels" binding:"required"`
	Now    string   `json:"now"` // 省略時はサーバーの基準時刻
}

// ResolveResponse はラベル解決のレスポンス
type ResolveResponse struct {
	Now        string                 `json:"now"`
	Resolved   int                    `json:"resolved"`
	Unresolved int                    `json:"unresolved"`
	Results    []pipeline.LabelResult `json:"results"`
}

// ResolveLabels はラベルのリストを解決する
// POST /api/resolve
func (h *Handler) ResolveLabels(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now, err := h.referenceTime(req.Now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := pipeline.ResolveLabels(req.Labels, now, h.resolver, h.unavailable)
	resp := ResolveResponse{Now: now.Format(pubdate.Layout), Results: results}
	for _, r := range results {
		if r.Resolved {
			resp.Resolved++
		} else {
			resp.Unresolved++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// POST /api/articles
// -----------------------------------------------------------------------------

// ArticlesRequest は記事解決のリクエスト
type ArticlesRequest struct {
	Articles  []pipeline.Article `json:"articles" binding:"required"`
	Now       string             `json:"now"`
	HoursBack int                `json:"hoursBack" binding:"gte=0"` // 0=フィルタなし
}

// ArticlesResponse は記事解決のレスポンス
type ArticlesResponse struct {
	Now string `json:"now"`
	*pipeline.ResolveResult
}

// ResolveArticles は記事リストの投稿日を解決する
// POST /api/articles
func (h *Handler) ResolveArticles(c *gin.Context) {
	var req ArticlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now, err := h.referenceTime(req.Now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := pipeline.ResolveArticles(c.Request.Context(), req.Articles, now, pipeline.ResolveOptions{
		Resolver:    h.resolver,
		Unavailable: h.unavailable,
		Fallback:    h.fallback,
	})
	if req.HoursBack > 0 {
		result.Articles = pipeline.FilterByHours(result.Articles, now, req.HoursBack)
	}
	c.JSON(http.StatusOK, ArticlesResponse{Now: now.Format(pubdate.Layout), ResolveResult: result})
}
