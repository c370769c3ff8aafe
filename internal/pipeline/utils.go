// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはパッケージ全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化、重複削除、切り詰め
//   - JSON操作: ファイル読み書き、標準出力への出力
//   - データ重複排除: URLベースのArticle重複削除
//
// ログ出力は log.go を参照。
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// 使用例:
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// uniqStrings は文字列スライスから重複と空文字列を除去する
//
// 使用例:
//
//	input := []string{"a", "b", "a", "", "c", "b"}
//	unique := uniqStrings(input)  // ["a", "b", "c"]
func uniqStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// truncateString は文字列を指定した長さに切り詰める
//
// maxLen文字を超える場合、末尾に"..."を付けて切り詰める
// 日本語などのマルチバイト文字も正しく処理する（runeを使用）
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// -----------------------------------------------------------------------------
// データ重複排除関数
// -----------------------------------------------------------------------------

// uniqueArticlesByURL はURLに基づいてArticleの重複を除去する
//
// 同じURLの記事が複数回渡された場合、最初に出現したものだけを残す。
// URLが空の記事は除外される。
func uniqueArticlesByURL(in []Article) []Article {
	seen := map[string]bool{}
	out := make([]Article, 0, len(in))
	for _, a := range in {
		u := strings.TrimSpace(a.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		a.URL = u
		out = append(out, a)
	}
	return out
}

// DedupeAgainst は保存先に既に存在するURLの記事を除外する
//
// スプレッドシートなどの保存先から既存URLの一覧を取得し、
// 新しい記事だけを追記するために使用する。
//
// 使用例:
//
//	existing := []string{"https://example.com/a"}
//	fresh := DedupeAgainst(existing, articles)
func DedupeAgainst(existingURLs []string, articles []Article) []Article {
	existing := make(map[string]bool, len(existingURLs))
	for _, u := range existingURLs {
		existing[strings.TrimSpace(u)] = true
	}
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if existing[strings.TrimSpace(a.URL)] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// writeJSON は任意のデータを2スペースインデントのJSONで書き出す
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ReadJSONFile はJSONファイルを読み込んで指定した型に変換する
//
// 使用例:
//
//	var articles []Article
//	err := ReadJSONFile("articles.json", &articles)
func ReadJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
