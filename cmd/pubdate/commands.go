package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pubdate-relay/internal/pipeline"
	"pubdate-relay/internal/pubdate"
	"pubdate-relay/internal/server"
)

// newRootCmd はルートコマンドを生成する
//
// フラグのデフォルト値には cfg（環境変数を反映済み）の値を使う。
func newRootCmd(cfg *pipeline.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pubdate",
		Short: "Resolve news publish-date labels into absolute timestamps",
		Long: `pubdate turns the publish-date labels shown on news listing pages
("3時間前", "5 minutes ago", "3月15日", "2024/3/5(火) 12:34", "0:30")
into absolute timestamps formatted as YYYY/MM/DD HH:MM.

Labels that cannot be resolved are reported with a sentinel text (取得不可).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.SetLogLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			cfg.Output.Format = strings.ToLower(cfg.Output.Format)
			return cfg.Validate()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.Resolve.Now, "now", cfg.Resolve.Now, "reference time for relative labels, e.g. \"2024-03-10 15:30\" or RFC3339 (default: current time)")
	pf.StringVar(&cfg.Resolve.Timezone, "tz", cfg.Resolve.Timezone, "time zone of the reference time and output: JST|UTC|Local|+09:00|IANA name")
	pf.StringVar(&cfg.Resolve.Unavailable, "unavailable", cfg.Resolve.Unavailable, "text written for labels that cannot be resolved")
	pf.BoolVar(&cfg.Resolve.MonthDayRollback, "month-day-rollback", cfg.Resolve.MonthDayRollback, "treat month-day labels after today as last year")
	pf.StringVar(&cfg.Resolve.MarkersFile, "markers", cfg.Resolve.MarkersFile, "optional: YAML file with extra N-ago markers")
	pf.BoolVar(&cfg.Fallback.Enabled, "fallback", cfg.Fallback.Enabled, "HEAD the article URL and use Last-Modified when the label cannot be resolved")
	pf.DurationVar(&cfg.Fallback.Timeout, "fallback-timeout", cfg.Fallback.Timeout, "timeout of each Last-Modified request")
	pf.IntVar(&cfg.Fallback.Retries, "fallback-retries", cfg.Fallback.Retries, "retries of each Last-Modified request")
	pf.StringVar(&cfg.Output.OutFile, "out", cfg.Output.OutFile, "optional: write output to this path (default: stdout)")
	pf.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "output format: json|tsv")
	pf.IntVar(&cfg.Output.HoursBack, "hours-back", cfg.Output.HoursBack, "only output articles published within the last N hours (0 disables)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")

	rootCmd.AddCommand(newResolveCmd(cfg))
	rootCmd.AddCommand(newArticlesCmd(cfg))
	rootCmd.AddCommand(newFeedCmd(cfg))
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// prepare は基準時刻とリゾルバを用意する
func prepare(cfg *pipeline.Config) (time.Time, *pubdate.Resolver, error) {
	now, err := cfg.Resolve.ReferenceTime()
	if err != nil {
		return time.Time{}, nil, err
	}
	r, err := cfg.Resolve.NewResolver()
	if err != nil {
		return time.Time{}, nil, err
	}
	return now, r, nil
}

// fallbackSource は --fallback 指定時のみ Last-Modified 取得器を返す
func fallbackSource(cfg *pipeline.Config) pipeline.LastModifiedSource {
	if !cfg.Fallback.Enabled {
		return nil
	}
	return pipeline.NewFetcher(cfg.Fallback.SourceConfig())
}

// writeOutput は出力先を開いて write を実行する
func writeOutput(cfg *pipeline.Config, write func(w io.Writer) error) (err error) {
	w, closeFn, err := pipeline.OpenOutput(cfg.Output.OutFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(w)
}

// -----------------------------------------------------------------------------
// resolve
// -----------------------------------------------------------------------------

func newResolveCmd(cfg *pipeline.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [label...]",
		Short: "Resolve publish-date labels (reads one label per line from stdin when no args)",
		Example: `  pubdate resolve "3時間前" "5 minutes ago" --now "2024-03-10 15:30"
  cat labels.txt | pubdate resolve --format tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := args
			if len(labels) == 0 {
				var err error
				labels, err = pipeline.ReadLabels(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			now, r, err := prepare(cfg)
			if err != nil {
				return err
			}

			results := pipeline.ResolveLabels(labels, now, r, cfg.Resolve.Unavailable)
			return writeOutput(cfg, func(w io.Writer) error {
				return pipeline.WriteLabels(w, cfg.Output.Format, results)
			})
		},
	}
}

// -----------------------------------------------------------------------------
// articles
// -----------------------------------------------------------------------------

func newArticlesCmd(cfg *pipeline.Config) *cobra.Command {
	var in, existing string

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Resolve the publish dates of scraped articles (JSON array of {source,title,url,label})",
		Example: `  pubdate articles --in articles.json --fallback
  scraper | pubdate articles --in - --existing urls.txt --format tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := pipeline.ReadArticles(in)
			if err != nil {
				return err
			}
			if existing != "" {
				articles, err = dropExisting(existing, articles)
				if err != nil {
					return err
				}
			}
			return resolveAndWrite(cmd, cfg, articles)
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "articles JSON file (\"-\" for stdin)")
	cmd.Flags().StringVar(&existing, "existing", "", "optional: file of URLs already stored downstream (one per line); those articles are skipped")
	return cmd
}

// dropExisting は保存先に既に存在するURLの記事を除外する
func dropExisting(path string, articles []pipeline.Article) ([]pipeline.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open existing urls: %w", err)
	}
	defer f.Close()

	urls, err := pipeline.ReadLabels(f)
	if err != nil {
		return nil, err
	}
	fresh := pipeline.DedupeAgainst(urls, articles)
	pipeline.Logger().Infof("skipped %d article(s) already stored", len(articles)-len(fresh))
	return fresh, nil
}

// resolveAndWrite は記事の投稿日を解決して出力する
func resolveAndWrite(cmd *cobra.Command, cfg *pipeline.Config, articles []pipeline.Article) error {
	log := pipeline.Logger()

	now, r, err := prepare(cfg)
	if err != nil {
		return err
	}

	result := pipeline.ResolveArticles(cmd.Context(), articles, now, pipeline.ResolveOptions{
		Resolver:    r,
		Unavailable: cfg.Resolve.Unavailable,
		Fallback:    fallbackSource(cfg),
	})
	for _, e := range result.Errors {
		log.Warn(e)
	}
	log.Infof("resolved %d, unresolved %d, skipped %d (now=%s)",
		result.Resolved, result.Unresolved, result.Skipped, now.Format(pubdate.Layout))

	rows := result.Articles
	if cfg.Output.HoursBack > 0 {
		rows = pipeline.FilterByHours(rows, now, cfg.Output.HoursBack)
		log.Infof("after time filter: %d article(s) (last %d hours)", len(rows), cfg.Output.HoursBack)
	}

	return writeOutput(cfg, func(w io.Writer) error {
		return pipeline.WriteArticles(w, cfg.Output.Format, rows)
	})
}

// -----------------------------------------------------------------------------
// feed
// -----------------------------------------------------------------------------

func newFeedCmd(cfg *pipeline.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "feed <url|path>",
		Short: "Resolve the publish dates of the items of an RSS/Atom feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := pipeline.NewFetcher(cfg.Fallback.SourceConfig())
			articles, err := pipeline.LoadFeedArticles(cmd.Context(), args[0], fetcher)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				return errors.New("no articles in feed")
			}
			return resolveAndWrite(cmd, cfg, articles)
		},
	}
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func newServeCmd(cfg *pipeline.Config) *cobra.Command {
	var devMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (GET /api/status, POST /api/resolve, POST /api/articles)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 基準時刻はリクエストごとに決めるので、ここではリゾルバだけ用意する
			r, err := cfg.Resolve.NewResolver()
			if err != nil {
				return err
			}

			h := server.NewHandler(cfg.Resolve, r, fallbackSource(cfg))
			s := server.NewServer(h, pipeline.Logger(), devMode)

			pipeline.Logger().Infof("listening on %s", cfg.Server.Addr)
			return s.Run(cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "listen address")
	cmd.Flags().BoolVar(&devMode, "dev", false, "run gin in debug mode")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubdate %s\n", version)
		},
	}
}
