// =============================================================================
// feed.go - RSS/Atom フィードからの記事読み込み
// =============================================================================
//
// RSS/Atom フィードの各アイテムを Article に変換します。
// 投稿日ラベルにはフィードに書かれた文字列をそのまま使用します。
//
//	RSS  <pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate>  → rfc1123
//	Atom <published>2024-03-05T10:00:00Z</published>       → iso8601
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"
)

// LoadFeedArticles はフィードを読み込んで記事リストを返す
//
// src が http:// または https:// で始まる場合は f で取得し、それ以外はファイルパスとして読む。
// リンクのないアイテムは警告を出してスキップする。
func LoadFeedArticles(ctx context.Context, src string, f *Fetcher) ([]Article, error) {
	data, err := readFeedSource(ctx, src, f)
	if err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(data))
	if err != nil {
		errorf("failed to parse feed %s: %v", src, err)
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	source := normalizeWhitespace(feed.Title)
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			warnf("%v", fmt.Errorf("feed item %q: %w", truncateString(item.Title, 40), ErrNoURL))
			continue
		}

		// 公開日がなければ更新日を使用
		label := item.Published
		if strings.TrimSpace(label) == "" {
			label = item.Updated
		}

		articles = append(articles, Article{
			Source: source,
			Title:  normalizeWhitespace(item.Title),
			URL:    link,
			Label:  strings.TrimSpace(label),
		})
	}

	debugf("loaded %d article(s) from feed %s", len(articles), src)
	return articles, nil
}

func readFeedSource(ctx context.Context, src string, f *Fetcher) ([]byte, error) {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if f == nil {
			f = NewFetcher(DefaultSourceConfig())
		}
		return f.Get(ctx, src)
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}
	return b, nil
}
