// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルは投稿日解決パイプライン全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - Article:         スクレイパーが取得した記事（投稿日ラベルは未解決）
//   - ResolvedArticle: 投稿日を解決した記事（スプレッドシートの1行に相当）
//   - LabelResult:     ラベル単体の解決結果
//   - ResolveResult:   バッチ処理の集計結果
//
// 【初心者向けポイント】
//   - `json:"フィールド名"`はJSONに変換する際のキー名を指定するタグ
//   - `omitempty`は値が空の場合、JSONに出力しないことを意味
//
// =============================================================================
package pipeline

// -----------------------------------------------------------------------------
// Article - スクレイパーから受け取る記事
// -----------------------------------------------------------------------------
//
// Googleニュース / Yahoo!ニュース / MSNニュースの一覧から取得した記事を表します。
// 一覧ページの取得・HTML解析は外部のスクレイパーが担当し、このパッケージは
// 受け取ったラベル文字列を解決するだけです。
//
// 【フィールドの説明】
//
//	Source: 引用元（例: "日本経済新聞", "MSN"）
//	Title:  記事タイトル
//	URL:    記事URL（重複排除のキー）
//	Label:  一覧に表示された投稿日ラベル（例: "3時間前", "2024/3/5(火) 12:34"）
type Article struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Label  string `json:"label"`
}

// -----------------------------------------------------------------------------
// ResolvedArticle - 投稿日を解決した記事
// -----------------------------------------------------------------------------
//
// スプレッドシートの列（タイトル / URL / 投稿日 / 引用元）に対応します。
//
// 【PublishedAtの値】
//   - 解決できた場合: "YYYY/MM/DD HH:MM"
//   - 解決できなかった場合: 設定された番兵テキスト（デフォルト "取得不可"）
type ResolvedArticle struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Label       string `json:"label,omitempty"`
	PublishedAt string `json:"publishedAt"`
	Resolved    bool   `json:"resolved"`
	Rule        string `json:"rule,omitempty"`     // マッチしたルール名、または "last-modified"
	Fallback    bool   `json:"fallback,omitempty"` // Last-Modified ヘッダーで補完した場合 true
}

// LabelResult はラベル単体の解決結果
type LabelResult struct {
	Label       string `json:"label"`
	PublishedAt string `json:"publishedAt"`
	Resolved    bool   `json:"resolved"`
	Rule        string `json:"rule,omitempty"`
}

// ResolveResult はバッチ処理の結果とエラー情報を保持する
//
// 1件の失敗でバッチ全体を止めないため、記事単位のエラーは Errors に集める。
type ResolveResult struct {
	Articles   []ResolvedArticle `json:"articles"`
	Resolved   int               `json:"resolved"`
	Unresolved int               `json:"unresolved"`
	Skipped    int               `json:"skipped"` // URLなし・重複で除外した件数
	Errors     []string          `json:"errors,omitempty"`
}
