package pubdate

import (
	"strings"

	"golang.org/x/text/width"
)

// normalizeLabel はマッチング前のラベル正規化を行う
//
//  1. 全角英数字・記号を半角に畳み込む（"１２：３０" → "12:30"、"（火）" → "(火)"）
//  2. 前後の空白（全角スペースを含む）を除去
//  3. 小文字化
func normalizeLabel(raw string) string {
	s := width.Fold.String(raw)
	s = strings.TrimSpace(s)
	return strings.ToLower(s)
}
