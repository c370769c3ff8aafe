// =============================================================================
// log.go - ログ出力
// =============================================================================
//
// ログは logrus で標準エラー出力に書き出します。
//
// 【なぜ標準エラー出力を使うか】
//
//	標準出力（stdout）は解決結果のJSON/TSVを渡すために使用するため、
//	ログメッセージは標準エラー出力（stderr）に出力する
//
//	./pubdate resolve < labels.txt | jq '.'
//
// =============================================================================
package pipeline

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Logger はパッケージ共通のロガーを返す
//
// cmd/ 以下のエントリーポイントも同じロガーを使用する。
func Logger() *logrus.Logger {
	return logger
}

// SetLogLevel はログレベルを設定する（"debug", "info", "warn", "error"）
func SetLogLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)
	return nil
}

// debugf はデバッグメッセージを出力する（DEBUGレベル時のみ）
func debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// infof は情報メッセージを出力する
func infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// warnf は警告メッセージを出力する
func warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// errorf はエラーメッセージを出力する
func errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
