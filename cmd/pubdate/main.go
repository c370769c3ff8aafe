// =============================================================================
// main.go - pubdate-relay CLI のエントリーポイント
// =============================================================================
//
// ニュース一覧の投稿日ラベル（"3時間前", "2024/3/5(火) 12:34" など）を
// 絶対日時（YYYY/MM/DD HH:MM）に変換するCLIツールです。
//
// =============================================================================
// 【サブコマンド】
// =============================================================================
//
//	resolve [label...]   ラベルを解決（引数がなければ標準入力から1行1ラベル）
//	articles --in FILE   記事JSONの投稿日を解決
//	feed URL|PATH        RSS/Atom フィードの記事を解決
//	serve                HTTP API サーバーを起動
//	version              バージョン表示
//
// 使用例:
//
//	./pubdate resolve "3時間前" "0:30" --now "2024-03-10 15:30"
//	cat labels.txt | ./pubdate resolve --format tsv
//	./pubdate articles --in articles.json --fallback --out resolved.json
//	./pubdate feed https://example.com/rss.xml
//	./pubdate serve --addr :8080
//
// =============================================================================
// 【共通フラグ】（環境変数より優先）
// =============================================================================
//
//	--now                  基準時刻（PUBDATE_NOW、省略時は現在時刻）
//	--tz                   タイムゾーン（PUBDATE_TZ、デフォルト: JST）
//	--unavailable          解決できなかった行のテキスト（デフォルト: 取得不可）
//	--month-day-rollback   未来になる「月日」ラベルを前年として扱う
//	--markers              追加マーカーのYAMLファイル
//	--fallback             解決できなかった記事の Last-Modified を取得
//	--out / --format       出力先 / 出力形式（json|tsv）
//	--log-level            ログレベル
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - cobra でサブコマンドとフラグを定義
// - godotenv で .env ファイルを読み込み（フラグのデフォルト値に反映される）
// - 結果は標準出力、ログは標準エラー出力
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"pubdate-relay/internal/pipeline"
)

var version = "0.1.0"

func main() {
	log := pipeline.Logger()

	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env file not loaded: %v (using environment variables only)", err)
	}

	cfg := pipeline.ConfigFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
