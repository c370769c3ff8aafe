// =============================================================================
// pubdate.go - 投稿日ラベル解決（DateResolver）のエントリーポイント
// =============================================================================
//
// このパッケージはニュース一覧ページから取得した「投稿日ラベル」を
// 絶対日時（YYYY/MM/DD HH:MM）に変換します。
//
// 【対応しているラベルの例】（優先順位順）
//   - "5分前", "5 minutes ago"          → now − 5分
//   - "3時間前", "3 hours ago"          → now − 3時間
//   - "2日前", "2 days ago"             → now − 2日
//   - "3月15日", "march 15"             → nowの年の3/15 00:00
//   - "2024年3月5日 12:34"              → 2024/03/05 12:34
//   - "2024-03-05T03:00:00Z"            → nowのタイムゾーンに変換
//   - "2024/3/5", "2024/3/5(火) 12:34"  → 2024/03/05 00:00 / 12:34
//   - "0:30", "23:00"                   → nowの日付（未来なら前日）
//   - "Tue, 05 Mar 2024 10:00:00 GMT"   → nowのタイムゾーンに変換
//
// 【重要な性質】
//   - 純粋関数: 同じ (label, now) には常に同じ結果を返す
//   - 共有状態なし: 複数のgoroutineから同時に呼び出してよい
//   - 失敗は Unresolvable の1種類のみ（パニックも含めて呼び出し元に漏らさない）
//
// 【使用例】
//
//	now := time.Date(2024, 1, 1, 0, 15, 0, 0, pubdate.JST)
//	res := pubdate.Resolve("0:30", now)
//	res.String() // "2023/12/31 00:30"
//
// =============================================================================
package pubdate

import "time"

// Layout は解決結果の出力フォーマット（YYYY/MM/DD HH:MM）
const Layout = "2006/01/02 15:04"

// Unavailable は解決できなかったラベルの表示用テキスト
//
// スプレッドシートの「投稿日」セルにそのまま書き込まれる値。
const Unavailable = "取得不可"

// JST は日本標準時（UTC+9、夏時間なし）の固定オフセット
var JST = time.FixedZone("JST", 9*60*60)

// -----------------------------------------------------------------------------
// Result - 解決結果
// -----------------------------------------------------------------------------
//
// 成功（絶対日時あり）か Unresolvable のどちらか一方を表します。
// ゼロ値は Unresolvable です。
type Result struct {
	t    time.Time
	rule RuleName
}

// Unresolvable は「日時を決定できなかった」ことを表す番兵値
var Unresolvable = Result{}

// OK は解決に成功した場合に true を返す
func (r Result) OK() bool {
	return r.rule != ""
}

// Time は解決した日時を返す（Unresolvable の場合はゼロ値）
//
// タイムゾーンは Resolve に渡した now と同じ。
func (r Result) Time() time.Time {
	return r.t
}

// Rule はマッチしたパターンの名前を返す（Unresolvable の場合は空文字列）
func (r Result) Rule() RuleName {
	return r.rule
}

// Format は Layout で整形した文字列を返す
//
// Unresolvable の場合は unavailable をそのまま返す。
func (r Result) Format(unavailable string) string {
	if !r.OK() {
		return unavailable
	}
	return r.t.Format(Layout)
}

// String は Format(Unavailable) と同じ
func (r Result) String() string {
	return r.Format(Unavailable)
}

// defaultResolver は Resolve が使用するデフォルト設定のリゾルバ
//
// 生成後に変更されないため、並行呼び出しで共有しても安全。
var defaultResolver = New()

// Resolve はデフォルト設定でラベルを解決する
//
// 引数:
//
//	label: 投稿日ラベル（前後の空白・大文字小文字は無視される）
//	now:   相対ラベルの基準となる現在時刻
func Resolve(label string, now time.Time) Result {
	return defaultResolver.Resolve(label, now)
}
