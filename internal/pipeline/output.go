// =============================================================================
// output.go - 入出力
// =============================================================================
//
// 【入力】
//   - ラベル: 1行1ラベルのテキスト（空行は無視）
//   - 記事:   Article の JSON 配列
//
// 【出力形式】
//   - json: 2スペースインデントのJSON
//   - tsv:  スプレッドシートの列順（タイトル / URL / 投稿日 / 引用元）
//
// =============================================================================
package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// 出力形式
const (
	FormatJSON = "json"
	FormatTSV  = "tsv"
)

// ReadLabels は r から1行1ラベルで読み込む
//
// 行末の改行と前後の空白は除去し、空行はスキップする。
// 行の長さに上限はない。
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			labels = append(labels, s)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read labels: %w", err)
		}
	}
	return labels, nil
}

// ReadArticles は記事のJSON配列を読み込む
//
// path が "-" の場合は標準入力から読む。
func ReadArticles(path string) ([]Article, error) {
	var articles []Article
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read articles: %w", err)
		}
		if err := json.Unmarshal(b, &articles); err != nil {
			return nil, fmt.Errorf("read articles: %w", err)
		}
		return articles, nil
	}
	if err := ReadJSONFile(path, &articles); err != nil {
		return nil, fmt.Errorf("read articles %s: %w", path, err)
	}
	return articles, nil
}

// OpenOutput は出力先を開く（path が空の場合は標準出力）
//
// 戻り値の close 関数は必ず呼ぶこと。標準出力の場合は何もしない。
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// WriteArticles は解決済みの記事を指定した形式で書き出す
func WriteArticles(w io.Writer, format string, articles []ResolvedArticle) error {
	switch format {
	case FormatJSON, "":
		if articles == nil {
			articles = []ResolvedArticle{}
		}
		return writeJSON(w, articles)
	case FormatTSV:
		rows := make([][]string, 0, len(articles))
		for _, a := range articles {
			rows = append(rows, []string{a.Title, a.URL, a.PublishedAt, a.Source})
		}
		return writeTSV(w, rows)
	default:
		return fmt.Errorf("unknown format %q (json|tsv)", format)
	}
}

// WriteLabels はラベルの解決結果を指定した形式で書き出す
//
// tsv の場合は ラベル / 投稿日 の2列。
func WriteLabels(w io.Writer, format string, results []LabelResult) error {
	switch format {
	case FormatJSON, "":
		if results == nil {
			results = []LabelResult{}
		}
		return writeJSON(w, results)
	case FormatTSV:
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.Label, r.PublishedAt})
		}
		return writeTSV(w, rows)
	default:
		return fmt.Errorf("unknown format %q (json|tsv)", format)
	}
}

func writeTSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	return nil
}
