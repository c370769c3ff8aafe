package pubdate

import "time"

// Resolver は設定済みのルールリストでラベルを解決する
//
// New で生成した後は不変なので、複数のgoroutineで共有してよい。
type Resolver struct {
	rules   []rule
	markers []Marker
}

// Option は Resolver の設定を変更する関数
type Option func(*options)

type options struct {
	extraMarkers     []Marker
	monthDayRollback bool
}

// WithMarkers はマーカー語を追加する（既存の単位の優先順位は変わらない）
func WithMarkers(markers ...Marker) Option {
	return func(o *options) {
		o.extraMarkers = append(o.extraMarkers, markers...)
	}
}

// WithMonthDayRollback は年なし月日ラベルの年の決め方を切り替える
//
// false（デフォルト）: 常に now の年
// true:               月日が now の日付より後なら前年（1月に見た "12月28日" → 前年12月）
func WithMonthDayRollback(enabled bool) Option {
	return func(o *options) {
		o.monthDayRollback = enabled
	}
}

// New は Resolver を生成する
func New(opts ...Option) *Resolver {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	markers := mergeMarkers(DefaultMarkers(), o.extraMarkers)
	return &Resolver{
		rules:   buildRules(markers, o.monthDayRollback),
		markers: markers,
	}
}

// Resolve はラベルを now 基準で解決する
//
// ルールは優先順位順に試し、最初に対象と判定されたルールの結果を返す。
// どのルールにも該当しない場合、数値や暦の変換に失敗した場合、
// 処理中にパニックが起きた場合はいずれも Unresolvable を返す。
func (r *Resolver) Resolve(label string, now time.Time) (res Result) {
	defer func() {
		if recover() != nil {
			res = Unresolvable
		}
	}()

	l := normalizeLabel(label)
	if l == "" {
		return Unresolvable
	}
	for _, rl := range r.rules {
		if !rl.detect(l) {
			continue
		}
		t, ok := rl.resolve(l, now)
		if !ok || t.Year() < 1 || t.Year() > 9999 {
			return Unresolvable
		}
		return Result{t: t, rule: rl.name}
	}
	return Unresolvable
}

// Rules はルール名を優先順位順に返す
func (r *Resolver) Rules() []RuleName {
	out := make([]RuleName, len(r.rules))
	for i, rl := range r.rules {
		out[i] = rl.name
	}
	return out
}

// Markers は実際に使用しているマーカーテーブルのコピーを返す
func (r *Resolver) Markers() []Marker {
	out := make([]Marker, len(r.markers))
	for i, m := range r.markers {
		out[i] = Marker{Unit: m.Unit, Words: append([]string(nil), m.Words...)}
	}
	return out
}
