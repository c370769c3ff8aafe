// =============================================================================
// Lambda: resolve-pubdates
// =============================================================================
//
// 投稿日ラベル・記事リストを受け取り、投稿日を解決して返すLambda関数
//
// イベント:
//
//	{
//	  "labels":   ["3時間前", "0:30"],
//	  "articles": [{"source": "MSN", "title": "...", "url": "...", "label": "2日前"}],
//	  "now":      "2024-03-10T15:30:00+09:00"   // 省略時は現在時刻
//	}
//
// 環境変数:
//   - PUBDATE_TZ:                 タイムゾーン (デフォルト: JST)
//   - PUBDATE_UNAVAILABLE:        解決できなかった行のテキスト (デフォルト: 取得不可)
//   - PUBDATE_MONTH_DAY_ROLLBACK: 未来の月日を前年として扱うか (デフォルト: false)
//   - PUBDATE_MARKERS:            追加マーカーのYAMLファイル (任意)
//   - PUBDATE_FALLBACK:           Last-Modified 補完を行うか (デフォルト: false)
//   - PUBDATE_FALLBACK_TIMEOUT:   HEAD リクエストのタイムアウト (デフォルト: 5s)
//   - PUBDATE_HOURS_BACK:         何時間以内の記事を返すか (デフォルト: 0=フィルタなし)
//   - PUBDATE_LOG_LEVEL:          ログレベル (デフォルト: info)
//
// =============================================================================
package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"

	"pubdate-relay/internal/pipeline"
	"pubdate-relay/internal/pubdate"
)

// Event はLambdaの入力イベント
type Event struct {
	Labels   []string           `json:"labels"`
	Articles []pipeline.Article `json:"articles"`
	Now      string             `json:"now"`
}

// Response はLambdaレスポンス
type Response struct {
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Resolved   int                        `json:"resolved"`
	Unresolved int                        `json:"unresolved"`
	Results    []pipeline.LabelResult     `json:"results,omitempty"`
	Articles   []pipeline.ResolvedArticle `json:"articles,omitempty"`
	Errors     []string                   `json:"errors,omitempty"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event Event) (Response, error) {
	log := pipeline.Logger()
	log.Info("Starting resolve-pubdates Lambda...")

	// 1. 環境変数から設定を読み込む
	cfg := loadConfig(event)
	if err := pipeline.SetLogLevel(cfg.LogLevel); err != nil {
		log.Warnf("ignoring log level %q: %v", cfg.LogLevel, err)
	}
	if err := cfg.Validate(); err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	if len(event.Labels) == 0 && len(event.Articles) == 0 {
		return Response{StatusCode: 200, Message: "No labels or articles given"}, nil
	}

	// 2. 基準時刻とリゾルバを用意
	now, err := cfg.Resolve.ReferenceTime()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}
	r, err := cfg.Resolve.NewResolver()
	if err != nil {
		log.Errorf("Error creating resolver: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	log.Infof("Config: tz=%s, now=%s, fallback=%v, labels=%d, articles=%d",
		cfg.Resolve.Timezone, now.Format(pubdate.Layout), cfg.Fallback.Enabled, len(event.Labels), len(event.Articles))

	resp := Response{StatusCode: 200}

	// 3. ラベルを解決
	if len(event.Labels) > 0 {
		resp.Results = pipeline.ResolveLabels(event.Labels, now, r, cfg.Resolve.Unavailable)
		for _, res := range resp.Results {
			if res.Resolved {
				resp.Resolved++
			} else {
				resp.Unresolved++
			}
		}
	}

	// 4. 記事を解決
	if len(event.Articles) > 0 {
		opts := pipeline.ResolveOptions{Resolver: r, Unavailable: cfg.Resolve.Unavailable}
		if cfg.Fallback.Enabled {
			opts.Fallback = pipeline.NewFetcher(cfg.Fallback.SourceConfig())
		}
		result := pipeline.ResolveArticles(ctx, event.Articles, now, opts)

		// エラーがあればログに記録
		if len(result.Errors) > 0 {
			log.Warnf("WARNING: %d article(s) failed Last-Modified fallback:", len(result.Errors))
			for _, e := range result.Errors {
				log.Warnf("  %s", e)
			}
		}

		resp.Articles = result.Articles

		// 時間フィルタリング（PUBDATE_HOURS_BACK > 0 の場合のみ）
		if cfg.Output.HoursBack > 0 {
			resp.Articles = pipeline.FilterByHours(resp.Articles, now, cfg.Output.HoursBack)
			log.Infof("After time filter: %d articles (last %d hours)", len(resp.Articles), cfg.Output.HoursBack)
		}
		resp.Errors = result.Errors
		resp.Resolved += result.Resolved
		resp.Unresolved += result.Unresolved
	}

	resp.Message = fmt.Sprintf("Resolved %d, unresolved %d", resp.Resolved, resp.Unresolved)
	log.Info(resp.Message)
	return resp, nil
}

// loadConfig は環境変数から設定を読み込む
//
// イベントの now は環境変数 PUBDATE_NOW より優先する。
func loadConfig(event Event) pipeline.Config {
	cfg := pipeline.ConfigFromEnv()
	if event.Now != "" {
		cfg.Resolve.Now = event.Now
	}
	return cfg
}

func main() {
	lambda.Start(Handler)
}
