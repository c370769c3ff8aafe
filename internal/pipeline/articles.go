// =============================================================================
// articles.go - 記事の投稿日解決
// =============================================================================
//
// スクレイパーから受け取った記事リストの投稿日ラベルを一括で解決します。
//
// 【処理フロー】
//
//	┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//	│ 1. 重複排除 │ -> │ 2. ラベル   │ -> │ 3. 補完     │
//	│  URLキー    │    │  解決       │    │ Last-Modified│
//	└─────────────┘    └─────────────┘    └─────────────┘
//
//	1. URLが空の記事を除外し、同じURLは最初の1件だけ残す
//	2. pubdate.Resolver でラベルを解決
//	3. 解決できず、補完が有効な場合は記事URLの Last-Modified を使用
//	   それでも得られなければ番兵テキスト（"取得不可"）を設定
//
// 1件の失敗でバッチ全体を止めることはない（エラーは ResolveResult.Errors に記録）。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"time"

	"pubdate-relay/internal/pubdate"
)

// RuleLastModified は Last-Modified ヘッダーで補完した行のルール名
const RuleLastModified = "last-modified"

// LastModifiedSource は記事URLの最終更新日時を返す外部ソース
//
// *Fetcher が実装している。テストではスタブに差し替える。
type LastModifiedSource interface {
	LastModified(ctx context.Context, rawURL string) (time.Time, error)
}

// ResolveOptions は ResolveArticles の動作設定
type ResolveOptions struct {
	// Resolver はラベル解決に使用するリゾルバ（nil の場合はデフォルト設定）
	Resolver *pubdate.Resolver

	// Unavailable は解決できなかった行に設定するテキスト（空の場合は "取得不可"）
	Unavailable string

	// Fallback が nil でなければ、解決できなかった記事の Last-Modified を取得する
	Fallback LastModifiedSource
}

func (o ResolveOptions) resolver() *pubdate.Resolver {
	if o.Resolver != nil {
		return o.Resolver
	}
	return pubdate.New()
}

func (o ResolveOptions) unavailable() string {
	if o.Unavailable != "" {
		return o.Unavailable
	}
	return pubdate.Unavailable
}

// ResolveArticles は記事リストの投稿日を now 基準で解決する
//
// 【引数】
//   - ctx:      Last-Modified 取得のキャンセル用
//   - articles: スクレイパーから受け取った記事
//   - now:      相対ラベルの基準時刻（出力もこのタイムゾーンになる）
//   - opts:     リゾルバ・番兵テキスト・補完の設定
//
// 【戻り値】
//   - 解決済みの記事（入力順、重複除去済み）と集計・エラー情報
func ResolveArticles(ctx context.Context, articles []Article, now time.Time, opts ResolveOptions) *ResolveResult {
	r := opts.resolver()
	unavailable := opts.unavailable()

	unique := uniqueArticlesByURL(articles)
	result := &ResolveResult{
		Articles: make([]ResolvedArticle, 0, len(unique)),
		Skipped:  len(articles) - len(unique),
	}

	for _, a := range unique {
		row := ResolvedArticle{
			Source: normalizeWhitespace(a.Source),
			Title:  normalizeWhitespace(a.Title),
			URL:    a.URL,
			Label:  a.Label,
		}

		res := r.Resolve(a.Label, now)
		if res.OK() {
			row.PublishedAt = res.String()
			row.Resolved = true
			row.Rule = string(res.Rule())
		} else {
			debugf("unresolvable label %q for %s", a.Label, a.URL)
			if t, ok := lastModifiedFallback(ctx, opts.Fallback, a, result); ok {
				row.PublishedAt = t.In(now.Location()).Format(pubdate.Layout)
				row.Resolved = true
				row.Rule = RuleLastModified
				row.Fallback = true
			} else {
				row.PublishedAt = unavailable
			}
		}

		if row.Resolved {
			result.Resolved++
		} else {
			result.Unresolved++
		}
		result.Articles = append(result.Articles, row)
	}

	if len(result.Errors) > 0 {
		warnf("%d article(s) could not be completed from Last-Modified (resolved %d / %d)",
			len(result.Errors), result.Resolved, len(result.Articles))
	}
	return result
}

// lastModifiedFallback は Last-Modified ヘッダーによる補完を試みる
//
// 失敗した場合はエラーメッセージを result.Errors に追加し false を返す。
func lastModifiedFallback(ctx context.Context, src LastModifiedSource, a Article, result *ResolveResult) (time.Time, bool) {
	if src == nil {
		return time.Time{}, false
	}
	if err := ctx.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("[ERROR] last-modified %s: %v", a.URL, err))
		return time.Time{}, false
	}

	t, err := src.LastModified(ctx, a.URL)
	if err != nil {
		msg := fmt.Sprintf("[ERROR] last-modified %s: %v", a.URL, err)
		warnf("%s (title: %s)", msg, truncateString(a.Title, 40))
		result.Errors = append(result.Errors, msg)
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// ResolveLabels はラベル文字列のリストを解決する
//
// 空のラベル（空白のみを含む）も Unresolvable として結果に含める。
func ResolveLabels(labels []string, now time.Time, r *pubdate.Resolver, unavailable string) []LabelResult {
	opts := ResolveOptions{Resolver: r, Unavailable: unavailable}
	r = opts.resolver()
	unavailable = opts.unavailable()

	out := make([]LabelResult, 0, len(labels))
	for _, l := range labels {
		res := r.Resolve(l, now)
		out = append(out, LabelResult{
			Label:       l,
			PublishedAt: res.Format(unavailable),
			Resolved:    res.OK(),
			Rule:        string(res.Rule()),
		})
	}
	return out
}
