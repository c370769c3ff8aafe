// =============================================================================
// config.go - パイプライン設定
// =============================================================================
//
// このファイルは設定の読み込み・検証を行います。
//
// 【設定の優先順位】（後のものが優先）
//  1. DefaultConfig() のデフォルト値
//  2. 環境変数（PUBDATE_*、.env ファイルは cmd/ 側で読み込む）
//  3. CLIフラグ（cmd/pubdate）
//
// 【設定グループ】
//   - ResolveConfig:  ラベル解決（基準時刻・タイムゾーン・マーカー）
//   - FallbackConfig: Last-Modified 補完
//   - OutputConfig:   出力形式・出力先
//   - ServerConfig:   HTTPサーバー
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Lambda などタイムゾーンDBのない環境でもIANA名を使う

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"pubdate-relay/internal/pubdate"
)

var (
	// ErrUnknownTimezone はタイムゾーン名を解釈できない場合のエラー
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrInvalidNow は基準時刻の文字列を解釈できない場合のエラー
	ErrInvalidNow = errors.New("invalid reference time")

	// ErrNoURL は記事にURLがない場合のエラー
	ErrNoURL = errors.New("article has no url")
)

// =============================================================================
// 設定構造体
// =============================================================================

// Config は全設定を保持する
type Config struct {
	Resolve  ResolveConfig
	Fallback FallbackConfig
	Output   OutputConfig
	Server   ServerConfig

	// LogLevel はログレベル（"debug", "info", "warn", "error"）
	LogLevel string `validate:"oneof=trace debug info warn warning error"`
}

// ResolveConfig はラベル解決に関する設定
type ResolveConfig struct {
	// Timezone は基準時刻と出力のタイムゾーン（"JST", "UTC", "+09:00", "Asia/Tokyo" など）
	Timezone string `validate:"required"`

	// Now は相対ラベルの基準時刻（空の場合は現在時刻）
	Now string

	// Unavailable は解決できなかった行のテキスト
	Unavailable string `validate:"required"`

	// MonthDayRollback が true の場合、未来になる「月日」ラベルを前年として扱う
	MonthDayRollback bool

	// MarkersFile は追加マーカーのYAMLファイル（任意）
	MarkersFile string `validate:"omitempty,file"`
}

// FallbackConfig は Last-Modified 補完に関する設定
type FallbackConfig struct {
	// Enabled が true の場合、解決できなかった記事のURLに HEAD リクエストを送る
	Enabled bool

	Timeout   time.Duration `validate:"gt=0"`
	Retries   int           `validate:"gte=0,lte=10"`
	UserAgent string        `validate:"required"`
}

// OutputConfig は出力に関する設定
type OutputConfig struct {
	// Format は出力形式（"json" | "tsv"）
	Format string `validate:"oneof=json tsv"`

	// OutFile が指定された場合、ファイルに出力（空の場合はstdout）
	OutFile string

	// HoursBack は何時間以内の記事を出力するか（0=フィルタなし）
	HoursBack int `validate:"gte=0"`
}

// ServerConfig はHTTPサーバーに関する設定
type ServerConfig struct {
	Addr string `validate:"required,hostname_port"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	src := DefaultSourceConfig()
	return Config{
		Resolve: ResolveConfig{
			Timezone:    "JST",
			Unavailable: pubdate.Unavailable,
		},
		Fallback: FallbackConfig{
			Timeout:   src.Timeout,
			Retries:   src.Retries,
			UserAgent: src.UserAgent,
		},
		Output: OutputConfig{
			Format: FormatJSON,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LogLevel: "info",
	}
}

// =============================================================================
// 環境変数
// =============================================================================

// ConfigFromEnv はデフォルト設定に環境変数の値を上書きした設定を返す
//
// 環境変数:
//   - PUBDATE_TZ:                 タイムゾーン (デフォルト: JST)
//   - PUBDATE_NOW:                基準時刻 (デフォルト: 現在時刻)
//   - PUBDATE_UNAVAILABLE:        解決できなかった行のテキスト (デフォルト: 取得不可)
//   - PUBDATE_MONTH_DAY_ROLLBACK: 未来の月日を前年として扱うか (デフォルト: false)
//   - PUBDATE_MARKERS:            追加マーカーのYAMLファイル (任意)
//   - PUBDATE_FALLBACK:           Last-Modified 補完を行うか (デフォルト: false)
//   - PUBDATE_FALLBACK_TIMEOUT:   HEAD リクエストのタイムアウト (デフォルト: 5s)
//   - PUBDATE_FALLBACK_RETRIES:   再試行回数 (デフォルト: 0)
//   - PUBDATE_USER_AGENT:         User-Agent
//   - PUBDATE_FORMAT:             出力形式 json|tsv (デフォルト: json)
//   - PUBDATE_OUT:                出力ファイル (任意)
//   - PUBDATE_HOURS_BACK:         何時間以内の記事を出力するか (デフォルト: 0=フィルタなし)
//   - PUBDATE_ADDR:               HTTPサーバーのアドレス (デフォルト: :8080)
//   - PUBDATE_LOG_LEVEL:          ログレベル (デフォルト: info)
//
// 解釈できない値は警告を出してデフォルト値のままにする。
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	envString("PUBDATE_TZ", &cfg.Resolve.Timezone)
	envString("PUBDATE_NOW", &cfg.Resolve.Now)
	envString("PUBDATE_UNAVAILABLE", &cfg.Resolve.Unavailable)
	envBool("PUBDATE_MONTH_DAY_ROLLBACK", &cfg.Resolve.MonthDayRollback)
	envString("PUBDATE_MARKERS", &cfg.Resolve.MarkersFile)

	envBool("PUBDATE_FALLBACK", &cfg.Fallback.Enabled)
	if v := os.Getenv("PUBDATE_FALLBACK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Fallback.Timeout = d
		} else {
			warnf("ignoring PUBDATE_FALLBACK_TIMEOUT=%q", v)
		}
	}
	if v := os.Getenv("PUBDATE_FALLBACK_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Fallback.Retries = n
		} else {
			warnf("ignoring PUBDATE_FALLBACK_RETRIES=%q", v)
		}
	}
	envString("PUBDATE_USER_AGENT", &cfg.Fallback.UserAgent)

	if v := os.Getenv("PUBDATE_FORMAT"); v != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(v))
	}
	envString("PUBDATE_OUT", &cfg.Output.OutFile)
	if v := os.Getenv("PUBDATE_HOURS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Output.HoursBack = n
		} else {
			warnf("ignoring PUBDATE_HOURS_BACK=%q", v)
		}
	}
	envString("PUBDATE_ADDR", &cfg.Server.Addr)
	envString("PUBDATE_LOG_LEVEL", &cfg.LogLevel)

	return cfg
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warnf("ignoring %s=%q", key, v)
		return
	}
	*dst = b
}

// =============================================================================
// 検証
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate は設定値を検証する
//
// 構造体タグの検証に加えて、タイムゾーンと基準時刻が解釈できるかを確認する。
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Resolve.ReferenceTime(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SourceConfig は補完用のHTTP設定を返す
func (c FallbackConfig) SourceConfig() SourceConfig {
	return SourceConfig{
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		Retries:   c.Retries,
	}
}

// =============================================================================
// タイムゾーン・基準時刻
// =============================================================================

var offsetRe = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)

// LoadLocation はタイムゾーン名から *time.Location を返す
//
// 対応形式:
//   - "" / "JST" / "Asia/Tokyo": pubdate.JST（固定オフセット）
//   - "UTC" / "GMT" / "Z"
//   - "Local"
//   - "+09:00", "-0500" などの固定オフセット
//   - その他のIANA名（"America/New_York" など）
func LoadLocation(name string) (*time.Location, error) {
	n := strings.TrimSpace(name)
	switch strings.ToUpper(n) {
	case "", "JST", "ASIA/TOKYO":
		return pubdate.JST, nil
	case "UTC", "GMT", "Z":
		return time.UTC, nil
	case "LOCAL":
		return time.Local, nil
	}

	if m := offsetRe.FindStringSubmatch(n); m != nil {
		hh, _ := strconv.Atoi(m[2])
		mm, _ := strconv.Atoi(m[3])
		if hh > 14 || mm > 59 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
		}
		offset := hh*3600 + mm*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(n, offset), nil
	}

	loc, err := time.LoadLocation(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// nowLayouts は基準時刻として受け付けるタイムゾーンなしの形式
var nowLayouts = []string{
	pubdate.Layout,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseNow は基準時刻の文字列を loc の時刻として解釈する
//
// RFC3339（オフセット付き）の場合は loc に変換する。
func ParseNow(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range nowLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidNow, s)
}

// Location は設定されたタイムゾーンを返す
func (c ResolveConfig) Location() (*time.Location, error) {
	return LoadLocation(c.Timezone)
}

// ReferenceTime は相対ラベルの基準時刻を返す
//
// Now が空の場合は現在時刻を設定されたタイムゾーンで返す。
func (c ResolveConfig) ReferenceTime() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(c.Now) == "" {
		return time.Now().In(loc), nil
	}
	return ParseNow(c.Now, loc)
}

// NewResolver は設定に従ってリゾルバを生成する
func (c ResolveConfig) NewResolver() (*pubdate.Resolver, error) {
	opts := []pubdate.Option{pubdate.WithMonthDayRollback(c.MonthDayRollback)}
	if c.MarkersFile != "" {
		markers, err := LoadMarkersFile(c.MarkersFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pubdate.WithMarkers(markers...))
		infof("loaded %d marker group(s) from %s", len(markers), c.MarkersFile)
	}
	return pubdate.New(opts...), nil
}

// =============================================================================
// マーカーファイル
// =============================================================================

// markersFile はマーカーYAMLファイルの構造
//
// 例:
//
//	markers:
//	  minute: ["分钟前", "분 전"]
//	  hour:   ["小时前", "시간 전"]
//	  day:    ["天前", "일 전"]
type markersFile struct {
	Markers map[string][]string `yaml:"markers"`
}

// LoadMarkersFile はYAMLファイルから追加マーカーを読み込む
func LoadMarkersFile(path string) ([]pubdate.Marker, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markers file: %w", err)
	}
	markers, err := ParseMarkers(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return markers, nil
}

// ParseMarkers はYAMLデータから追加マーカーを読み込む
//
// 単位は "minute" / "hour" / "day"（複数形も可）。結果は単位の順に並ぶ。
func ParseMarkers(data []byte) ([]pubdate.Marker, error) {
	var f markersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse markers: %w", err)
	}

	// map の順序に依存しないようキーを整列してから処理する
	keys := make([]string, 0, len(f.Markers))
	for key := range f.Markers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	markers := make([]pubdate.Marker, 0, len(f.Markers))
	for _, key := range keys {
		words := f.Markers[key]
		unit, err := pubdate.ParseUnit(key)
		if err != nil {
			return nil, fmt.Errorf("parse markers: %w", err)
		}
		trimmed := make([]string, 0, len(words))
		for _, w := range words {
			trimmed = append(trimmed, strings.TrimSpace(w))
		}
		words = uniqStrings(trimmed)
		if len(words) == 0 {
			continue
		}
		markers = append(markers, pubdate.Marker{Unit: unit, Words: words})
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Unit < markers[j].Unit
	})
	return markers, nil
}
