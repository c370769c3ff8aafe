package pipeline

import (
	"time"

	"pubdate-relay/internal/pubdate"
)

// FilterByHours は now から hours 時間以内に公開された記事のみを残す
//
// 【注意】
//   - hours が0以下の場合はフィルタリングしない
//   - 投稿日を解決できなかった記事は保持する（日付不明のため除外しない）
//   - now より未来の記事は除外する
//
// 【使用例】
//
//	result := ResolveArticles(ctx, articles, now, opts)
//	recent := FilterByHours(result.Articles, now, 24) // 過去24時間の記事のみ
func FilterByHours(articles []ResolvedArticle, now time.Time, hours int) []ResolvedArticle {
	if hours <= 0 {
		return articles
	}

	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	filtered := make([]ResolvedArticle, 0, len(articles))
	for _, a := range articles {
		if !a.Resolved {
			filtered = append(filtered, a)
			continue
		}

		// PublishedAt は now のタイムゾーンで整形されている
		t, err := time.ParseInLocation(pubdate.Layout, a.PublishedAt, now.Location())
		if err != nil {
			debugf("FilterByHours: cannot parse %q for %s", a.PublishedAt, a.URL)
			continue
		}
		if !t.Before(cutoff) && !t.After(now) {
			filtered = append(filtered, a)
		}
	}

	debugf("FilterByHours: %d -> %d articles (last %d hours)", len(articles), len(filtered), hours)
	return filtered
}
