package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsanders/estimate-ai/pkg/document"
	"github.com/tsanders/estimate-ai/pkg/export"
	"github.com/tsanders/estimate-ai/pkg/ingest"
	"github.com/tsanders/estimate-ai/pkg/session"
	"github.com/tsanders/estimate-ai/pkg/ux"
	"github.com/tsanders/estimate-ai/pkg/web"
)

func newEditCmd() *cobra.Command {
	var (
		instruction string
		out         string
	)

	cmd := &cobra.Command{
		Use:     "edit <estimate.html>",
		Short:   "Revise a generated estimate with a natural-language instruction",
		Example: `  estimate-ai edit 견적서_쇼핑몰_20261019.html -m "개발 기간을 4개월로 늘려주세요"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			prov, err := createProvider(a.cfg.Provider)
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}
			prompts, err := a.prompts()
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			html := string(data)
			sess := session.NewStore().Create(name, name, document.DetectVariant(name, html), html)

			spinner := ux.NewSpinner("수정 중...")
			spinner.Start()
			if err := sess.Edit(cmd.Context(), prov, prompts, instruction); err != nil {
				spinner.StopWithError("수정 실패")
				return err
			}
			spinner.StopWithSuccess("수정 완료")

			if out == "" {
				out = args[0]
			}
			if err := export.SaveHTML(out, sess.Current()); err != nil {
				return err
			}
			ux.PrintSuccess("저장: %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&instruction, "message", "m", "", "What to change (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: overwrite the input)")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available estimate templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			store, err := a.templates()
			if err != nil {
				return err
			}

			rows := [][]string{{"이름", "형식", "출처"}}
			for _, t := range store.List() {
				source := string(t.Source)
				if t.Path != "" {
					source = t.Path
				}
				rows = append(rows, []string{t.Name, string(t.Variant), source})
			}
			ux.PrintSummaryTable(rows)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <estimate.html>",
		Short: "Export an estimate as a standalone HTML file or a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			format = strings.ToLower(format)
			if out == "" {
				out = replaceExt(args[0], "."+format)
			}

			switch format {
			case "pdf":
				renderer := export.NewChromiumRenderer(a.cfg.Export.ChromePath, a.cfg.Export.Timeout)
				spinner := ux.NewSpinner("PDF 생성 중...")
				spinner.Start()
				if err := export.SavePDF(cmd.Context(), renderer, out, string(data)); err != nil {
					spinner.StopWithError("PDF 생성 실패")
					return err
				}
				spinner.Stop()
			case "html":
				if out == args[0] {
					return errors.New("output would overwrite the input; pass --out")
				}
				if err := export.SaveHTML(out, string(data)); err != nil {
					return err
				}
			case "txt":
				text, err := ingest.New().Extract(cmd.Context(), "estimate.html", data)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q: use pdf, html or txt", format)
			}

			ux.PrintSuccess("저장: %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format: pdf, html, txt")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: input path with the new extension)")

	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			gen, err := a.generator(nil)
			if err != nil {
				return err
			}

			server := web.NewEstimateServer(web.Config{
				Generator: gen,
				PDF:       export.NewChromiumRenderer(a.cfg.Export.ChromePath, a.cfg.Export.Timeout),
				Logger:    a.logger,
				Addr:      a.cfg.Server.Addr,
			})

			ux.PrintInfo("웹 인터페이스: http://%s (종료: Ctrl+C)", a.cfg.Server.Addr)
			return server.Start(cmd.Context(), openBrowser)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config: 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "Open the browser")

	return cmd
}
