// =============================================================================
// rules.go - パターンルール定義
// =============================================================================
//
// ラベルの解決は「ルール」の順序付きリストで行います。各ルールは2段階です:
//
//	detect:  ラベルがこのルールの対象かを判定（前方一致・部分一致）
//	resolve: 対象と判定されたラベルを絶対日時に変換（完全一致）
//
// 最初に detect が true になったルールだけが resolve を実行します。
// resolve が失敗した場合、後続のルールは試さずに Unresolvable になります。
// （例: "3分前" ではなく "数分前" は分ルールの対象だが数字がないので解決不可）
//
// 【ルールの優先順位】
//  1. N分前          (minutes-ago)
//  2. N時間前        (hours-ago)
//  3. N日前          (days-ago)
//  4. 月日（年なし） (month-day)     "3月15日", "march 15", "3/10(日) 12:34"
//  5. 和暦形式の年月日 (japanese-date) "2024年3月5日 12:34"
//  6. ISO-8601       (iso8601)       "2024-03-05T03:00:00Z"
//  7. 数値の年月日   (full-date)     "2024/3/5", "2024/3/5(火) 12:34"
//  8. 時刻のみ       (time-of-day)   "0:30"
//  9. RFC 1123       (rfc1123)       "Tue, 05 Mar 2024 10:00:00 GMT"
//
// 5, 6, 9 は 1〜4, 7, 8 のどれにも該当しないラベルしか拾わないため、
// 追加しても既存ルールの結果は変わらない。
//
// =============================================================================
package pubdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RuleName はルールの識別名
type RuleName string

const (
	RuleMinutesAgo   RuleName = "minutes-ago"
	RuleHoursAgo     RuleName = "hours-ago"
	RuleDaysAgo      RuleName = "days-ago"
	RuleMonthDay     RuleName = "month-day"
	RuleJapaneseDate RuleName = "japanese-date"
	RuleISO8601      RuleName = "iso8601"
	RuleFullDate     RuleName = "full-date"
	RuleTimeOfDay    RuleName = "time-of-day"
	RuleRFC1123      RuleName = "rfc1123"
)

// rule は1つのパターンクラス
type rule struct {
	name    RuleName
	detect  func(label string) bool
	resolve func(label string, now time.Time) (time.Time, bool)
}

// Package-level compiled regex（ラベルは正規化済み＝小文字・半角）
var (
	reFirstNumber = regexp.MustCompile(`\d+`)

	reMonthDayJAPrefix    = regexp.MustCompile(`^\d+月\d+日`)
	reMonthDayJA          = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日$`)
	reMonthDaySlashPrefix = regexp.MustCompile(`^\d{1,2}/\d{1,2}(?:$|[\s(])`)
	reMonthDaySlash       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:\s*\([^)]*\))?(?:\s*(\d{1,2}):(\d{2}))?$`)
	reMonthDayENPrefix    = regexp.MustCompile(`^(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d`)
	reMonthDayEN          = regexp.MustCompile(`^(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?$`)

	reJapaneseDatePrefix = regexp.MustCompile(`^\d{4}年\d{1,2}月\d{1,2}日`)
	reJapaneseDate       = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日(?:\s*\([^)]*\))?(?:\s*(\d{1,2})(?::|時)(\d{2})分?)?$`)

	reISO8601Prefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}t\d{2}:\d{2}`)

	reFullDatePrefix = regexp.MustCompile(`^\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	reFullDate       = regexp.MustCompile(`^(\d{4})([/-])(\d{1,2})([/-])(\d{1,2})(?:\s*\([^)]*\))?(?:\s*(\d{1,2}):(\d{2})(?::\d{2})?)?$`)

	reTimeOfDayPrefix = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	reTimeOfDay       = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	reRFC1123Prefix = regexp.MustCompile(`^[a-z]{3},\s*\d{1,2}\s+[a-z]{3}\s+\d{2,4}\s+\d{1,2}:\d{2}`)
)

// monthsByPrefix は英語の月名（先頭3文字）から月への対応表
var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// buildRules はマーカーテーブルとオプションからルールリストを組み立てる
func buildRules(markers []Marker, monthDayRollback bool) []rule {
	rules := make([]rule, 0, len(markers)+6)
	for _, m := range markers {
		rules = append(rules, agoRule(m))
	}
	rules = append(rules,
		monthDayRule(monthDayRollback),
		rule{name: RuleJapaneseDate, detect: reJapaneseDatePrefix.MatchString, resolve: resolveJapaneseDate},
		rule{name: RuleISO8601, detect: reISO8601Prefix.MatchString, resolve: resolveISO8601},
		rule{name: RuleFullDate, detect: reFullDatePrefix.MatchString, resolve: resolveFullDate},
		rule{name: RuleTimeOfDay, detect: reTimeOfDayPrefix.MatchString, resolve: resolveTimeOfDay},
		rule{name: RuleRFC1123, detect: reRFC1123Prefix.MatchString, resolve: resolveRFC1123},
	)
	return rules
}

// -----------------------------------------------------------------------------
// 1〜3. N分前 / N時間前 / N日前
// -----------------------------------------------------------------------------

// agoRule はマーカーを含むラベルから最初の整数 N を取り出し、now − N単位 を返す
func agoRule(m Marker) rule {
	unit := m.Unit
	words := append([]string(nil), m.Words...)
	return rule{
		name: unit.ruleName(),
		detect: func(label string) bool {
			return containsAny(label, words)
		},
		resolve: func(label string, now time.Time) (time.Time, bool) {
			num := reFirstNumber.FindString(label)
			if num == "" {
				return time.Time{}, false
			}
			n, err := strconv.ParseInt(num, 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return unit.subtract(now, n)
		},
	}
}

// -----------------------------------------------------------------------------
// 4. 月日（年なし）
// -----------------------------------------------------------------------------

// monthDayRule は "3月15日" / "march 15" を now の年の 00:00 として解決する
//
// Yahoo!ニュースの "3/10(日) 12:34" のように時刻が付いた "/" 区切りの月日は、
// 曜日表記を読み飛ばしてその時刻で解決する。
// rollback が true の場合、月日が now の日付より後なら前年とみなす。
// 年を明示した英語表記（"march 15, 2024"）は rollback の対象外。
func monthDayRule(rollback bool) rule {
	return rule{
		name: RuleMonthDay,
		detect: func(label string) bool {
			return reMonthDayJAPrefix.MatchString(label) ||
				reMonthDaySlashPrefix.MatchString(label) ||
				reMonthDayENPrefix.MatchString(label)
		},
		resolve: func(label string, now time.Time) (time.Time, bool) {
			var month, day, hour, minute int
			year, explicitYear := now.Year(), false

			if m := reMonthDayJA.FindStringSubmatch(label); m != nil {
				month, _ = atoi(m[1])
				day, _ = atoi(m[2])
			} else if m := reMonthDaySlash.FindStringSubmatch(label); m != nil {
				month, _ = atoi(m[1])
				day, _ = atoi(m[2])
				if m[3] != "" {
					hour, _ = atoi(m[3])
					minute, _ = atoi(m[4])
				}
			} else if m := reMonthDayEN.FindStringSubmatch(label); m != nil {
				month = int(monthsByPrefix[m[1][:3]])
				day, _ = atoi(m[2])
				if m[3] != "" {
					year, _ = atoi(m[3])
					explicitYear = true
				}
			} else {
				return time.Time{}, false
			}

			if rollback && !explicitYear && monthDayAfter(month, day, now) {
				year--
			}
			return makeDate(year, month, day, hour, minute, now.Location())
		},
	}
}

// monthDayAfter は (month, day) が now の月日より後かを返す
func monthDayAfter(month, day int, now time.Time) bool {
	if month != int(now.Month()) {
		return month > int(now.Month())
	}
	return day > now.Day()
}

// -----------------------------------------------------------------------------
// 5. 年月日（"2024年3月5日"）
// -----------------------------------------------------------------------------

func resolveJapaneseDate(label string, now time.Time) (time.Time, bool) {
	m := reJapaneseDate.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}, false
	}
	return dateFromParts(m[1], m[2], m[3], m[4], m[5], now.Location())
}

// -----------------------------------------------------------------------------
// 6. ISO-8601（Google ニュースの <time datetime="..."> 属性）
// -----------------------------------------------------------------------------

var isoLayoutsWithZone = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

var isoLayoutsLocal = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// resolveISO8601 は ISO-8601 形式を解析し now のタイムゾーンに変換する
//
// タイムゾーン指定のない値は now のタイムゾーンの時刻とみなす。
func resolveISO8601(label string, now time.Time) (time.Time, bool) {
	s := strings.ToUpper(label)
	for _, layout := range isoLayoutsWithZone {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(now.Location()), true
		}
	}
	for _, layout := range isoLayoutsLocal {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// -----------------------------------------------------------------------------
// 7. 数値の年月日（"2024/3/5", Yahoo!ニュースの "2024/3/5(火) 12:34"）
// -----------------------------------------------------------------------------

// resolveFullDate は年月日を解析する。時刻がなければ 00:00。
//
// 区切り文字は "/" か "-" で、両方とも同じでなければならない。
// 曜日表記 "(火)" は読み飛ばす。
func resolveFullDate(label string, now time.Time) (time.Time, bool) {
	m := reFullDate.FindStringSubmatch(label)
	if m == nil || m[2] != m[4] {
		return time.Time{}, false
	}
	return dateFromParts(m[1], m[3], m[5], m[6], m[7], now.Location())
}

// -----------------------------------------------------------------------------
// 8. 時刻のみ（"0:30"）
// -----------------------------------------------------------------------------

// resolveTimeOfDay は now の日付と組み合わせる
//
// 結果が now より未来になる場合は前日とみなす（ラベルは「今日か昨日」を指す）。
func resolveTimeOfDay(label string, now time.Time) (time.Time, bool) {
	m := reTimeOfDay.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}, false
	}
	hour, _ := atoi(m[1])
	minute, _ := atoi(m[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if t.After(now) {
		t = t.AddDate(0, 0, -1)
	}
	return t, true
}

// -----------------------------------------------------------------------------
// 9. RFC 1123 / RFC 822（RSS の pubDate、HTTP の Last-Modified）
// -----------------------------------------------------------------------------

var rfcLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 06 15:04:05 -0700",
	"Mon, 2 Jan 06 15:04 -0700",
}

// rfcZoneOffsets は RFC 822 のゾーン略号と数値オフセットの対応表
//
// time.Parse は未知の略号をオフセット0として扱うため、事前に数値へ置換する。
var rfcZoneOffsets = map[string]string{
	"GMT": "+0000", "UT": "+0000", "UTC": "+0000", "Z": "+0000",
	"JST": "+0900",
	"EST": "-0500", "EDT": "-0400",
	"CST": "-0600", "CDT": "-0500",
	"MST": "-0700", "MDT": "-0600",
	"PST": "-0800", "PDT": "-0700",
}

func resolveRFC1123(label string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(strings.ToUpper(label))
	if len(fields) == 0 {
		return time.Time{}, false
	}
	if off, ok := rfcZoneOffsets[fields[len(fields)-1]]; ok {
		fields[len(fields)-1] = off
	}
	s := strings.Join(fields, " ")
	s = strings.Replace(s, ",", ", ", 1)
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range rfcLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(now.Location()), true
		}
	}
	return time.Time{}, false
}

// -----------------------------------------------------------------------------
// 共通ヘルパー
// -----------------------------------------------------------------------------

// dateFromParts は文字列の年月日（時分は省略可）から日時を組み立てる
func dateFromParts(y, mo, d, h, mi string, loc *time.Location) (time.Time, bool) {
	year, ok1 := atoi(y)
	month, ok2 := atoi(mo)
	day, ok3 := atoi(d)
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	hour, minute := 0, 0
	if h != "" {
		var okH, okM bool
		hour, okH = atoi(h)
		minute, okM = atoi(mi)
		if !okH || !okM {
			return time.Time{}, false
		}
	}
	return makeDate(year, month, day, hour, minute, loc)
}

// makeDate は実在する日時の場合のみ time.Time を返す
//
// time.Date は範囲外の値を正規化してしまう（2月30日 → 3月1日）ため、
// 組み立て後に月日が変わっていないことを確認する。
func makeDate(year, month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
