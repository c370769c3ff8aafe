// =============================================================================
// fetch.go - HTTP取得（Last-Modified フォールバック / フィード取得）
// =============================================================================
//
// 投稿日ラベルが解決できなかった記事について、記事URLに HEAD リクエストを送り
// Last-Modified ヘッダーから日時を補完します。
//
// 【注意】
//   - Last-Modified は「最終更新日時」であり公開日時と一致するとは限らない
//   - そのため補完した行は ResolvedArticle.Fallback = true で区別できる
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoLastModified はレスポンスに Last-Modified ヘッダーがない場合のエラー
var ErrNoLastModified = errors.New("no Last-Modified header")

// SourceConfig はHTTP取得時の設定を保持
type SourceConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストのタイムアウト時間
	Retries   int           // 通信エラー時の再試行回数（0=再試行なし）
}

// DefaultSourceConfig はデフォルトのHTTP設定を返す
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		UserAgent: "Mozilla/5.0 (compatible; pubdate-relay/1.0; +https://example.invalid)",
		Timeout:   5 * time.Second, // HEAD は軽いので短め
		Retries:   0,
	}
}

// Fetcher は resty クライアントをラップしたHTTP取得器
//
// 内部のクライアントはコネクションを共有するため、1つの Fetcher を使い回すこと。
type Fetcher struct {
	client *resty.Client
}

// NewFetcher は設定から Fetcher を生成する
func NewFetcher(cfg SourceConfig) *Fetcher {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	return &Fetcher{client: client}
}

// LastModified は rawURL に HEAD リクエストを送り Last-Modified ヘッダーの日時を返す
//
// 戻り値の日時はヘッダーのまま（GMT）。表示用のタイムゾーンへの変換は呼び出し元で行う。
func (f *Fetcher) LastModified(ctx context.Context, rawURL string) (time.Time, error) {
	resp, err := f.client.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("HEAD %s: %w", rawURL, err)
	}
	if resp.IsError() {
		return time.Time{}, fmt.Errorf("HEAD %s: status %s", rawURL, resp.Status())
	}

	lm := resp.Header().Get("Last-Modified")
	if lm == "" {
		return time.Time{}, fmt.Errorf("HEAD %s: %w", rawURL, ErrNoLastModified)
	}
	t, err := http.ParseTime(lm)
	if err != nil {
		return time.Time{}, fmt.Errorf("HEAD %s: parse Last-Modified %q: %w", rawURL, lm, err)
	}
	return t, nil
}

// Get は rawURL を GET してレスポンスボディを返す
//
// 200番台以外のステータスはエラーとして扱う。
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: status %s", rawURL, resp.Status())
	}
	return resp.Body(), nil
}
