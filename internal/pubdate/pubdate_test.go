package pubdate

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func jst(y int, mo time.Month, d, h, mi int) time.Time {
	return time.Date(y, mo, d, h, mi, 0, 0, JST)
}

func TestResolve(t *testing.T) {
	now := jst(2024, time.March, 10, 15, 30)

	tests := []struct {
		label string
		want  string
		rule  RuleName
	}{
		// N分前 / N時間前 / N日前
		{"5分前", "2024/03/10 15:25", RuleMinutesAgo},
		{"5 minutes ago", "2024/03/10 15:25", RuleMinutesAgo},
		{"1 minute ago", "2024/03/10 15:29", RuleMinutesAgo},
		{"0分前", "2024/03/10 15:30", RuleMinutesAgo},
		{"3時間前", "2024/03/10 12:30", RuleHoursAgo},
		{"1 Hour Ago", "2024/03/10 14:30", RuleHoursAgo},
		{"2日前", "2024/03/08 15:30", RuleDaysAgo},
		{"10 days ago", "2024/02/29 15:30", RuleDaysAgo},
		{"  ３時間前 ", "2024/03/10 12:30", RuleHoursAgo},

		// 月日（年なし）
		{"3月15日", "2024/03/15 00:00", RuleMonthDay},
		{"1月5日", "2024/01/05 00:00", RuleMonthDay},
		{"March 15", "2024/03/15 00:00", RuleMonthDay},
		{"mar 5", "2024/03/05 00:00", RuleMonthDay},
		{"Sept. 1", "2024/09/01 00:00", RuleMonthDay},
		{"Mar 5, 2023", "2023/03/05 00:00", RuleMonthDay},
		{"3/10(日) 12:34", "2024/03/10 12:34", RuleMonthDay},
		{"３/９（土） ８：０５", "2024/03/09 08:05", RuleMonthDay},
		{"3/5", "2024/03/05 00:00", RuleMonthDay},

		// 年月日
		{"2024年3月5日", "2024/03/05 00:00", RuleJapaneseDate},
		{"2024年3月5日 12時34分", "2024/03/05 12:34", RuleJapaneseDate},
		{"2024年3月5日(火) 8:05", "2024/03/05 08:05", RuleJapaneseDate},

		// ISO-8601
		{"2024-03-05T03:00:00Z", "2024/03/05 12:00", RuleISO8601},
		{"2024-03-05T03:00:00+09:00", "2024/03/05 03:00", RuleISO8601},
		{"2024-03-05T03:00", "2024/03/05 03:00", RuleISO8601},

		// 数値の年月日
		{"2024/3/5", "2024/03/05 00:00", RuleFullDate},
		{"2024/03/05", "2024/03/05 00:00", RuleFullDate},
		{"2024-3-5", "2024/03/05 00:00", RuleFullDate},
		{"2024/3/5(火) 12:34", "2024/03/05 12:34", RuleFullDate},
		{"２０２４/３/５（火） １２：３４", "2024/03/05 12:34", RuleFullDate},
		{"2024/03/05 00:00", "2024/03/05 00:00", RuleFullDate},

		// 時刻のみ
		{"9:05", "2024/03/10 09:05", RuleTimeOfDay},
		{"15:30", "2024/03/10 15:30", RuleTimeOfDay},
		{"15:31", "2024/03/09 15:31", RuleTimeOfDay},

		// RFC 1123
		{"Tue, 05 Mar 2024 10:00:00 GMT", "2024/03/05 19:00", RuleRFC1123},
		{"Sat, 2 Mar 2024 09:00:00 +0900", "2024/03/02 09:00", RuleRFC1123},
		{"Mon, 04 Mar 2024 20:00:00 EST", "2024/03/05 10:00", RuleRFC1123},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := Resolve(tt.label, now)
			if !got.OK() {
				t.Fatalf("Resolve(%q) = Unresolvable, want %s", tt.label, tt.want)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.label, got, tt.want)
			}
			if got.Rule() != tt.rule {
				t.Errorf("Resolve(%q) rule = %s, want %s", tt.label, got.Rule(), tt.rule)
			}
			if got.Time().Location() != JST {
				t.Errorf("Resolve(%q) location = %v, want JST", tt.label, got.Time().Location())
			}
		})
	}
}

func TestResolveUnresolvable(t *testing.T) {
	now := jst(2024, time.March, 10, 15, 30)

	labels := []string{
		"",
		"   ",
		"abc",
		"数分前",
		"a few hours ago",
		"yesterday",
		"2月30日",
		"13月1日",
		"0月1日",
		"3月15日 10:00",
		"2024/2/30",
		"2024/13/1",
		"2024/3-5",
		"2024/3/5 25:00",
		"24:00",
		"12:60",
		"12:30:45",
		"0000/1/1",
		"99999999999999999999分前",
		"9999999999 days ago",
		"2024-03-05T25:00:00Z",
		"Tue, 05 Xyz 2024 10:00:00 GMT",
		"march 32",
		"2/30(金) 12:00",
		"3/10(日) 25:00",
		"3/10/2024",
	}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			got := Resolve(label, now)
			if got.OK() {
				t.Fatalf("Resolve(%q) = %s (%s), want Unresolvable", label, got, got.Rule())
			}
			if got.String() != Unavailable {
				t.Errorf("String() = %q, want %q", got.String(), Unavailable)
			}
			if got.Rule() != "" {
				t.Errorf("Rule() = %q, want empty", got.Rule())
			}
			if !got.Time().IsZero() {
				t.Errorf("Time() = %v, want zero", got.Time())
			}
		})
	}
}

func TestResolveTimeOfDayRollback(t *testing.T) {
	tests := []struct {
		name  string
		label string
		now   time.Time
		want  string
	}{
		{"after now rolls back across the year", "0:30", jst(2024, time.January, 1, 0, 15), "2023/12/31 00:30"},
		{"before now stays on the same day", "23:00", jst(2024, time.January, 1, 23, 30), "2024/01/01 23:00"},
		{"equal to now stays on the same day", "00:15", jst(2024, time.January, 1, 0, 15), "2024/01/01 00:15"},
		{"one minute after now rolls back", "00:16", jst(2024, time.January, 1, 0, 15), "2023/12/31 00:16"},
		{"midnight label just after midnight", "0:00", jst(2024, time.March, 1, 0, 1), "2024/03/01 00:00"},
		{"leap day", "23:59", jst(2024, time.March, 1, 0, 1), "2024/02/29 23:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.label, tt.now)
			if got.String() != tt.want {
				t.Errorf("Resolve(%q, %s) = %s, want %s", tt.label, tt.now.Format(Layout), got, tt.want)
			}
		})
	}
}

func TestResolveTimeOfDayWithSeconds(t *testing.T) {
	// now に秒がある場合も「分まで同じ」なら未来ではない
	now := time.Date(2024, time.January, 1, 23, 0, 30, 0, JST)
	if got := Resolve("23:00", now).String(); got != "2024/01/01 23:00" {
		t.Errorf("Resolve(23:00) = %s, want 2024/01/01 23:00", got)
	}
}

func TestResolveAgoExactness(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 15, 42, 0, JST)

	units := []struct {
		format string
		step   func(n int) time.Time
	}{
		{"%d分前", func(n int) time.Time { return now.Add(-time.Duration(n) * time.Minute) }},
		{"%d minutes ago", func(n int) time.Time { return now.Add(-time.Duration(n) * time.Minute) }},
		{"%d時間前", func(n int) time.Time { return now.Add(-time.Duration(n) * time.Hour) }},
		{"%d hours ago", func(n int) time.Time { return now.Add(-time.Duration(n) * time.Hour) }},
		{"%d日前", func(n int) time.Time { return now.AddDate(0, 0, -n) }},
		{"%d days ago", func(n int) time.Time { return now.AddDate(0, 0, -n) }},
	}

	for _, u := range units {
		for _, n := range []int{0, 1, 2, 15, 59, 60, 61, 365, 1000} {
			label := fmt.Sprintf(u.format, n)
			got := Resolve(label, now)
			want := u.step(n).Format(Layout)
			if got.String() != want {
				t.Errorf("Resolve(%q) = %s, want %s", label, got, want)
			}
		}
	}
}

func TestResolveAgoLargeN(t *testing.T) {
	now := jst(2024, time.March, 10, 15, 30)

	tests := []struct {
		label string
		want  string
	}{
		{"1000000000分前", "0122/11/13 04:50"},
		{"10000000時間前", "0883/05/24 23:30"},
		{"200000000 minutes ago", "1643/12/04 18:10"},
		{"3000000 hours ago", "1681/12/13 15:30"},
		{"100000000000分前", Unavailable},
		{"100000000時間前", Unavailable},
		{"99999999999999999999分前", Unavailable},
		{"5000000日前", Unavailable},
	}
	for _, tt := range tests {
		got := Resolve(tt.label, now)
		if got.Format(Unavailable) != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.label, got.Format(Unavailable), tt.want)
		}
		if got.OK() && got.Time().After(now) {
			t.Errorf("Resolve(%q) = %s is after now", tt.label, got)
		}
	}
}

func TestResolveFullDateIgnoresNow(t *testing.T) {
	nows := []time.Time{
		jst(2024, time.January, 1, 0, 0),
		jst(1999, time.December, 31, 23, 59),
		jst(2030, time.June, 15, 12, 0),
	}
	for _, now := range nows {
		if got := Resolve("2024/3/5", now).String(); got != "2024/03/05 00:00" {
			t.Errorf("Resolve(2024/3/5, %s) = %s, want 2024/03/05 00:00", now.Format(Layout), got)
		}
	}
}

func TestResolveFullDateIdempotent(t *testing.T) {
	labels := []string{"2024/3/5", "1999/12/31", "2024/2/29", "2000-01-01"}
	first := jst(2024, time.March, 10, 15, 30)
	second := jst(2031, time.July, 4, 6, 45)

	for _, label := range labels {
		once := Resolve(label, first)
		if !once.OK() {
			t.Fatalf("Resolve(%q) = Unresolvable", label)
		}
		twice := Resolve(once.String(), second)
		if !twice.OK() {
			t.Fatalf("Resolve(%q) = Unresolvable", once.String())
		}
		if twice.String() != once.String() {
			t.Errorf("re-resolving %q: got %s, want %s", once.String(), twice, once)
		}
		if twice.Time().Hour() != 0 || twice.Time().Minute() != 0 {
			t.Errorf("re-resolving %q: got %s, want midnight", once.String(), twice)
		}
	}
}

func TestResolveMonthDayPolicy(t *testing.T) {
	january := jst(2024, time.January, 5, 9, 0)

	tests := []struct {
		name     string
		label    string
		now      time.Time
		rollback bool
		want     string
	}{
		{"same year keeps a future month", "12月28日", january, false, "2024/12/28 00:00"},
		{"rollback moves a future month to last year", "12月28日", january, true, "2023/12/28 00:00"},
		{"rollback leaves a past date alone", "1月4日", january, true, "2024/01/04 00:00"},
		{"rollback leaves today alone", "1月5日", january, true, "2024/01/05 00:00"},
		{"rollback moves tomorrow to last year", "1月6日", january, true, "2023/01/06 00:00"},
		{"rollback english month", "dec 31", january, true, "2023/12/31 00:00"},
		{"rollback slash month-day keeps its time", "12/28(土) 18:00", january, true, "2023/12/28 18:00"},
		{"explicit year is never rolled back", "dec 31, 2024", january, true, "2024/12/31 00:00"},
		{"leap day resolved in the previous year", "2月29日", jst(2025, time.January, 10, 0, 0), true, "2024/02/29 00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithMonthDayRollback(tt.rollback))
			got := r.Resolve(tt.label, tt.now)
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}

	// 同じ年に存在しない日付はロールバックなしでは解決できない
	if got := Resolve("2月29日", jst(2025, time.January, 10, 0, 0)); got.OK() {
		t.Errorf("Resolve(2月29日) in 2025 = %s, want Unresolvable", got)
	}
}

func TestResolveKeepsLocationOfNow(t *testing.T) {
	utc := time.Date(2024, time.January, 1, 0, 15, 0, 0, time.UTC)

	if got := Resolve("2024-01-01T09:00:00+09:00", utc).String(); got != "2024/01/01 00:00" {
		t.Errorf("ISO label in UTC = %s, want 2024/01/01 00:00", got)
	}
	if got := Resolve("0:30", utc).String(); got != "2023/12/31 00:30" {
		t.Errorf("time-of-day in UTC = %s, want 2023/12/31 00:30", got)
	}
}

func TestResultFormat(t *testing.T) {
	now := jst(2024, time.March, 10, 15, 30)

	if got := Resolve("abc", now).Format("N/A"); got != "N/A" {
		t.Errorf("Format(N/A) = %q, want N/A", got)
	}
	if got := Resolve("5分前", now).Format("N/A"); got != "2024/03/10 15:25" {
		t.Errorf("Format(N/A) = %q, want 2024/03/10 15:25", got)
	}
	if Unresolvable.OK() {
		t.Error("Unresolvable.OK() = true")
	}
	var zero Result
	if zero.OK() || zero.String() != Unavailable {
		t.Errorf("zero Result = %q, want Unresolvable", zero.String())
	}
}

func TestResolveConcurrent(t *testing.T) {
	now := jst(2024, time.January, 1, 0, 15)
	labels := []string{
		"5分前", "3時間前", "2日前", "3月15日", "2024/3/5", "0:30", "23:00",
		"abc", "2月30日", "2024-03-05T03:00:00Z", "Tue, 05 Mar 2024 10:00:00 GMT",
	}

	want := make([]string, len(labels))
	for i, l := range labels {
		want[i] = Resolve(l, now).String()
	}

	r := New()
	var wg sync.WaitGroup
	errs := make(chan string, len(labels)*50)
	for round := 0; round < 50; round++ {
		for i := range labels {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if got := r.Resolve(labels[i], now).String(); got != want[i] {
					errs <- fmt.Sprintf("Resolve(%q) = %s, want %s", labels[i], got, want[i])
				}
			}((i + round) % len(labels))
		}
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
