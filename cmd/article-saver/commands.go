package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"article-saver/internal/app"
	"article-saver/internal/config"
	"article-saver/internal/content"
	"article-saver/internal/normalize"
	"article-saver/internal/storage"
)

var (
	exportPages  string
	historySite  string
	historyLimit int
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [search-url]",
		Short: "Save the articles listed on one or more search result pages",
		Long: `Start at the given search result page and walk the requested number of
pages. Every listed article is fetched in turn and all of them are saved
into one document. Articles that cannot be fetched appear with a failure
notice and are counted in the final tally.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().StringVarP(&exportPages, "pages", "p", "1", "number of pages to save, starting at the given page")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	pages, err := app.ParsePageCount(exportPages)
	if err != nil {
		return explain(err)
	}

	e, err := newEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.ErrOrStderr()
	orch, err := e.newOrchestrator(func(p app.Progress) {
		if p.State == app.StateFetching && p.Done > 0 {
			fmt.Fprintf(out, "\r正在处理 %d/%d (成功:%d 失败:%d)", p.Done, p.Total, p.Succeeded, p.Failed)
			if p.Done == p.Total {
				fmt.Fprintln(out)
			}
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := app.GracefulShutdown(cmd.Context(), e.logger)
	defer cancel()

	rep, err := orch.ExportBatch(ctx, app.BatchRequest{StartURL: args[0], Pages: pages})
	if err != nil {
		return explain(err)
	}
	printBatchReport(cmd, rep)
	return nil
}

func articleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article [article-url]",
		Short: "Save a single article page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			orch, err := e.newOrchestrator(nil)
			if err != nil {
				return err
			}

			ctx, cancel := app.GracefulShutdown(cmd.Context(), e.logger)
			defer cancel()

			rep, err := orch.ExportArticle(ctx, args[0])
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n文件名：%s\n路径：%s\n", savedMessage(e.cfg.Export.Format), rep.Filename, rep.Path)
			return nil
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [url]",
		Short: "Show what the site selectors find on a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			orch, err := e.newOrchestrator(nil)
			if err != nil {
				return err
			}

			ctx, cancel := app.GracefulShutdown(cmd.Context(), e.logger)
			defer cancel()

			ins, err := orch.Inspect(ctx, args[0])
			if err != nil {
				return explain(err)
			}
			printInspection(cmd, ins, e.cfg.Normalize.MaxPreviewChars)
			return nil
		},
	}
}

func sitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the supported sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDOMAIN\tPROFILE\tKEYWORD PARAM\tARTICLE SELECTOR")
			for _, a := range e.registry.Adapters() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Name, a.Domain, a.Profile, a.SearchParam, a.Selectors.ArticleBody)
			}
			return w.Flush()
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.ledger == nil {
				return fmt.Errorf("export ledger is disabled (storage.driver is %q)", e.cfg.Storage.Driver)
			}

			records, err := e.ledger.RecentExports(cmd.Context(), historySite, historyLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSITE\tMODE\tPAGES\tOK\tFAILED\tFILE")
			for _, r := range records {
				pages := "-"
				if r.Mode == storage.ModeBatch {
					pages = fmt.Sprintf("%d-%d", r.StartPage, r.EndPage)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Site, r.Mode, pages, r.Succeeded, r.Failed, r.Filename)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&historySite, "site", "", "only show exports of this site (e.g. SHBB)")
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records")
	return cmd
}

func savedMessage(format string) string {
	if format == config.FormatMD {
		return "文章已保存为Markdown文档！"
	}
	return "文章已保存为DOCX文档！"
}

// printBatchReport lists failures before successes.
func printBatchReport(cmd *cobra.Command, rep *app.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "批量保存完成！\n文件名：%s\n路径：%s\n\n", rep.Filename, rep.Path)
	fmt.Fprintf(out, "页面范围: %s (共%d页)\n", rep.PageRange(), rep.PagesProcessed)
	fmt.Fprintf(out, "总计文章: %d 篇\n成功: %d 篇\n失败: %d 篇\n", rep.Total, rep.Succeeded, rep.Failed)
	if rep.Clamped {
		fmt.Fprintln(out, "注意: 请求的页数超过了可用页数，已自动调整")
	}
	if rep.Duplicate {
		fmt.Fprintln(out, "注意: 相同的文章集之前已导出过")
	}

	if len(rep.FailedTitles) > 0 {
		fmt.Fprintln(out, "\n保存失败的文章:")
		for i, title := range rep.FailedTitles {
			fmt.Fprintf(out, "%d. %s\n", i+1, title)
		}
	}
	if len(rep.SucceededTitles) > 0 {
		fmt.Fprintln(out, "\n成功保存的文章:")
		for i, title := range rep.SucceededTitles {
			fmt.Fprintf(out, "%d. %s\n", i+1, title)
		}
	}
}

func printInspection(cmd *cobra.Command, ins *app.Inspection, previewChars int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "网站: %s\n地址: %s\n页面类型: %s\nHTTP状态: %d\n", ins.Site, ins.URL, ins.Kind, ins.StatusCode)

	if ins.Stubs != nil {
		fmt.Fprintf(out, "\n搜索关键词: %s\n当前页: %d\n总页数(估计): %d\n找到文章: %d 篇\n", ins.Keyword, ins.Page, ins.TotalPages, len(ins.Stubs))
		for i, s := range ins.Stubs {
			fmt.Fprintf(out, "%d. %s [%s]\n   %s\n", i+1, s.Title, s.Date, s.URL)
			if s.Summary != "" {
				fmt.Fprintf(out, "   %s\n", normalize.TruncatePreview(s.Summary, previewChars))
			}
		}
	}

	if ins.ContainerSelector != "" || ins.Failure != "" || ins.Paragraphs != nil {
		fmt.Fprintln(out)
		if ins.ContainerSelector != "" {
			fmt.Fprintf(out, "内容容器: %s (%d 字)\n", ins.ContainerSelector, ins.ContainerChars)
		}
		if ins.Failure != "" {
			fmt.Fprintf(out, "提取结果: %s\n", ins.Failure)
		} else {
			var parts []string
			for _, k := range []content.Kind{content.Heading, content.ListItem, content.Body, content.Blank} {
				parts = append(parts, fmt.Sprintf("%s=%d", k, ins.Paragraphs[k]))
			}
			fmt.Fprintf(out, "段落: %s\n", strings.Join(parts, " "))
		}
	}
}
