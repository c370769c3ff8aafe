// =============================================================================
// markers.go - 「N分前 / N時間前 / N日前」マーカーテーブル
// =============================================================================
//
// 相対ラベルの単位判定は (単位, マーカー語の集合) の順序付きテーブルで行います。
// テーブルの先頭から順に調べ、最初にマーカーを含んだ単位が採用されます。
//
// 【新しい言語を追加する場合】
//
//	pubdate.New(pubdate.WithMarkers(
//	    pubdate.Marker{Unit: pubdate.Minute, Words: []string{"分钟前"}},
//	))
//
// 追加したマーカーは既存の単位の末尾に足されるだけなので、優先順位は変わりません。
//
// =============================================================================
package pubdate

import (
	"fmt"
	"strings"
	"time"
)

// Unit は相対ラベルの時間単位
type Unit int

const (
	Minute Unit = iota + 1
	Hour
	Day
)

// String は単位名を返す（YAML設定ファイルのキーと同じ）
func (u Unit) String() string {
	switch u {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// ParseUnit は "minute" / "hour" / "day"（複数形も可）を Unit に変換する
func ParseUnit(s string) (Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "minute":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

// ruleName は単位に対応するルール名を返す
func (u Unit) ruleName() RuleName {
	return RuleName(u.String() + "s-ago")
}

// subtract は now から n 単位を引く
//
// 分・時間は経過時間として、日はカレンダー日として扱う。
// 分・時間は time.Duration の範囲を超えるため Unix 秒で計算する。
// 西暦1年より前になる n は false を返す。
func (u Unit) subtract(now time.Time, n int64) (time.Time, bool) {
	if n < 0 {
		return time.Time{}, false
	}
	switch u {
	case Minute, Hour:
		step := int64(60)
		if u == Hour {
			step = 60 * 60
		}
		if n > (now.Unix()-minUnix)/step+1 {
			return time.Time{}, false
		}
		return time.Unix(now.Unix()-n*step, int64(now.Nanosecond())).In(now.Location()), true
	case Day:
		if n > maxAgoDays {
			return time.Time{}, false
		}
		return now.AddDate(0, 0, -int(n)), true
	}
	return time.Time{}, false
}

// minUnix は 0001-01-01T00:00:00Z の Unix 秒
var minUnix = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

// maxAgoDays は日単位で受け付ける最大の遡り幅（約1万年分）
const maxAgoDays = 10000 * 366

// Marker は単位とそのマーカー語の組
type Marker struct {
	Unit  Unit
	Words []string
}

// DefaultMarkers はデフォルトのマーカーテーブル（日本語・英語）
//
// 順序が優先順位になる: 分 → 時間 → 日
func DefaultMarkers() []Marker {
	return []Marker{
		{Unit: Minute, Words: []string{"分前", "minute"}},
		{Unit: Hour, Words: []string{"時間前", "hour"}},
		{Unit: Day, Words: []string{"日前", "day"}},
	}
}

// mergeMarkers は base に extra のマーカー語を追加したテーブルを返す
//
// base に存在しない単位は末尾に追加される。語は正規化（全角→半角、小文字化）し、
// 空文字列と重複は除去する。base は変更しない。
func mergeMarkers(base []Marker, extra []Marker) []Marker {
	out := make([]Marker, 0, len(base)+len(extra))
	index := map[Unit]int{}
	add := func(m Marker) {
		i, ok := index[m.Unit]
		if !ok {
			index[m.Unit] = len(out)
			out = append(out, Marker{Unit: m.Unit})
			i = len(out) - 1
		}
		for _, w := range m.Words {
			w = normalizeLabel(w)
			if w == "" || containsString(out[i].Words, w) {
				continue
			}
			out[i].Words = append(out[i].Words, w)
		}
	}
	for _, m := range base {
		add(m)
	}
	for _, m := range extra {
		add(m)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// containsAny は label がいずれかのマーカー語を含むかを返す
func containsAny(label string, words []string) bool {
	for _, w := range words {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}
