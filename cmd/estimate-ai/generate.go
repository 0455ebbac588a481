package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/export"
	"github.com/tsanders/estimate-ai/pkg/ingest"
	"github.com/tsanders/estimate-ai/pkg/pipeline"
	"github.com/tsanders/estimate-ai/pkg/projectfile"
	"github.com/tsanders/estimate-ai/pkg/report"
	"github.com/tsanders/estimate-ai/pkg/ux"
)

// outputOptions are shared by the commands that write a document.
type outputOptions struct {
	out          string
	pdf          bool
	template     string
	templateFile string
	report       bool
	saveProject  string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output HTML path (default: 견적서_<project>_<date>.html in the export dir)")
	cmd.Flags().BoolVar(&o.pdf, "pdf", false, "Also render a PDF next to the HTML file")
	cmd.Flags().StringVarP(&o.template, "template", "t", "", "Template name (see 'estimate-ai templates')")
	cmd.Flags().StringVar(&o.templateFile, "template-file", "", "Path to an HTML template file")
	cmd.Flags().BoolVar(&o.report, "report", false, "Also write a generation report (<out>.report.html)")
	cmd.Flags().StringVar(&o.saveProject, "save-project", "", "Save the project information as a reusable YAML file")
}

// inlineTemplate reads --template-file, returning its name and content.
func (o *outputOptions) inlineTemplate() (string, string, error) {
	if o.templateFile == "" {
		return o.template, "", nil
	}
	data, err := os.ReadFile(o.templateFile)
	if err != nil {
		return "", "", fmt.Errorf("failed to read template: %w", err)
	}
	return filepath.Base(o.templateFile), string(data), nil
}

func newGenerateCmd() *cobra.Command {
	var (
		project     estimate.ProjectInfo
		basic       string
		standard    string
		premium     string
		attach      []string
		projectPath string
		interactive bool
		output      outputOptions
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an estimate from project information",
		Example: `  estimate-ai generate --name "쇼핑몰 리뉴얼" --description "모바일 중심 개편" --budget 3000만원 --timeline 3개월
  estimate-ai generate --project shop.yaml --budget 협의
  estimate-ai generate --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			budgets := estimate.PackageBudgets{
				Basic:    currency.ParsePrice(basic),
				Standard: currency.ParsePrice(standard),
				Premium:  currency.ParsePrice(premium),
			}
			if projectPath != "" {
				file, err := projectfile.Load(projectPath)
				if err != nil {
					return err
				}
				project, budgets = mergeProject(file.ProjectInfo(), project, budgets)
				attach = append(file.Attachments, attach...)
				if output.template == "" {
					output.template = file.Template
				}
				a.logger.Debug("loaded project file", zap.String("path", projectPath))
			}

			if interactive {
				if output.template == "" {
					output.template = a.cfg.Templates.Default
				}
				store, err := a.templates()
				if err != nil {
					return err
				}
				if err := runProjectForm(&project, &output.template, store.List()); err != nil {
					return err
				}
			}

			project.PackageBudgets = budgets
			if len(attach) > 0 {
				text, err := readAttachments(cmd.Context(), attach)
				if err != nil {
					return err
				}
				project.Attachment = text
			}
			if output.template == "" {
				output.template = a.cfg.Templates.Default
			}
			name, inline, err := output.inlineTemplate()
			if err != nil {
				return err
			}

			progress := ux.NewConsoleProgressWriter()
			gen, err := a.generator(progress)
			if err != nil {
				return err
			}

			ux.PrintHeader("견적서 생성")
			res, err := gen.Generate(cmd.Context(), pipeline.Request{
				Project:      project,
				Template:     name,
				TemplateHTML: inline,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd.Context(), a, res, output)
		},
	}

	f := cmd.Flags()
	f.StringVar(&project.Name, "name", "", "Project name")
	f.StringVar(&project.Description, "description", "", "Project description")
	f.StringVar(&project.Client, "client", "", "Client name")
	f.StringVar(&project.Budget, "budget", "", "Budget, e.g. 3000만원 or 협의")
	f.StringVar(&project.Timeline, "timeline", "", "Timeline, e.g. 3개월")
	f.StringVar(&project.AdditionalRequirements, "requirements", "", "Additional requirements")
	f.StringVar(&project.Instructions, "instructions", "", "Extra writing instructions for the AI")
	f.StringVar(&basic, "basic-budget", "", "Fixed price for the basic package")
	f.StringVar(&standard, "standard-budget", "", "Fixed price for the standard package")
	f.StringVar(&premium, "premium-budget", "", "Fixed price for the premium package")
	f.StringSliceVar(&attach, "attach", nil, "Reference files (txt, md, csv, html, docx, pdf)")
	f.StringVar(&projectPath, "project", "", "Project YAML file; other flags override its fields")
	f.BoolVarP(&interactive, "interactive", "i", false, "Fill in the project with an interactive form")
	output.register(cmd)

	return cmd
}

func newGenerateRawCmd() *cobra.Command {
	var (
		defaults estimate.ProjectInfo
		stdin    bool
		output   outputOptions
	)

	cmd := &cobra.Command{
		Use:   "generate-raw [files...]",
		Short: "Generate an estimate from client material",
		Long: `Reads requirement documents, RFPs or meeting notes, lets the AI extract
the project information and then generates the estimate from it.`,
		Example: `  estimate-ai generate-raw rfp.pdf notes.docx
  cat memo.txt | estimate-ai generate-raw --stdin --client 한빛상사`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !stdin {
				return errors.New("no input: pass files or --stdin")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			var raw string
			if len(args) > 0 {
				if raw, err = readAttachments(cmd.Context(), args); err != nil {
					return err
				}
			}
			if stdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				if raw != "" {
					raw += "\n\n"
				}
				raw += string(data)
			}

			if output.template == "" {
				output.template = a.cfg.Templates.Default
			}
			name, inline, err := output.inlineTemplate()
			if err != nil {
				return err
			}

			gen, err := a.generator(ux.NewConsoleProgressWriter())
			if err != nil {
				return err
			}

			ux.PrintHeader("자료 기반 견적서 생성")
			res, err := gen.GenerateFromRaw(cmd.Context(), pipeline.RawRequest{
				RawText:      raw,
				Defaults:     defaults,
				Template:     name,
				TemplateHTML: inline,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd.Context(), a, res, output)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&stdin, "stdin", false, "Read material from standard input")
	f.StringVar(&defaults.Name, "name", "", "Project name (overrides extraction)")
	f.StringVar(&defaults.Client, "client", "", "Client name (overrides extraction)")
	f.StringVar(&defaults.Budget, "budget", "", "Budget (overrides extraction)")
	f.StringVar(&defaults.Timeline, "timeline", "", "Timeline (overrides extraction)")
	f.StringVar(&defaults.Instructions, "instructions", "", "Extra writing instructions for the AI")
	output.register(cmd)

	return cmd
}

// readAttachments extracts text from files. Unreadable files are reported
// and skipped; it fails only when none could be read.
func readAttachments(ctx context.Context, paths []string) (string, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, ingest.File{Name: filepath.Base(p), Data: data})
	}

	results := ingest.New().ExtractAll(ctx, files)
	for _, r := range results {
		switch {
		case r.Err != nil:
			ux.PrintWarning("%v", r.Err)
		case r.Truncated:
			ux.PrintWarning("%s: 내용이 길어 일부만 사용합니다", r.Name)
		default:
			ux.PrintInfo("%s: %d자", r.Name, len([]rune(r.Text)))
		}
	}

	text := ingest.Combine(results)
	if text == "" {
		return "", errors.New("no text could be extracted from the given files")
	}
	return text, nil
}

// writeResult saves the document and prints a summary.
func writeResult(ctx context.Context, a *app, res *pipeline.Result, o outputOptions) error {
	path := o.out
	if path == "" {
		path = filepath.Join(a.cfg.Export.OutputDir, export.Filename(res.Project.DisplayName(), time.Now(), "html"))
	}
	if err := export.SaveHTML(path, res.HTML); err != nil {
		return err
	}

	var pdfPath string
	if o.pdf {
		pdfPath = replaceExt(path, ".pdf")
		renderer := export.NewChromiumRenderer(a.cfg.Export.ChromePath, a.cfg.Export.Timeout)
		if err := export.SavePDF(ctx, renderer, pdfPath, res.HTML); err != nil {
			return err
		}
	}

	if o.saveProject != "" {
		template := res.Template
		if o.templateFile != "" {
			template = ""
		}
		if err := projectfile.Save(projectfile.New(res.Project, template), o.saveProject); err != nil {
			return err
		}
	}

	var reportPath string
	if o.report {
		var err error
		if reportPath, err = report.GenerateHTML(res, path); err != nil {
			return err
		}
	}

	printResult(res)
	ux.PrintSuccess("HTML 저장: %s", path)
	if pdfPath != "" {
		ux.PrintSuccess("PDF 저장: %s", pdfPath)
	}
	if reportPath != "" {
		ux.PrintSuccess("리포트: %s", reportPath)
	}
	if o.saveProject != "" {
		ux.PrintSuccess("프로젝트 파일: %s", o.saveProject)
	}
	return nil
}

// mergeProject fills the empty fields of flags from a project file.
func mergeProject(file, flags estimate.ProjectInfo, budgets estimate.PackageBudgets) (estimate.ProjectInfo, estimate.PackageBudgets) {
	pick := func(flag, fromFile string) string {
		if flag != "" {
			return flag
		}
		return fromFile
	}
	flags.Name = pick(flags.Name, file.Name)
	flags.Description = pick(flags.Description, file.Description)
	flags.Client = pick(flags.Client, file.Client)
	flags.Budget = pick(flags.Budget, file.Budget)
	flags.Timeline = pick(flags.Timeline, file.Timeline)
	flags.AdditionalRequirements = pick(flags.AdditionalRequirements, file.AdditionalRequirements)
	flags.Instructions = pick(flags.Instructions, file.Instructions)

	if budgets.IsZero() {
		budgets = file.PackageBudgets
	}
	return flags, budgets
}

func printResult(res *pipeline.Result) {
	ux.PrintSection("결과")
	rows := [][]string{
		{"프로젝트", res.Project.DisplayName()},
		{"템플릿", fmt.Sprintf("%s (%s)", res.Template, res.Variant)},
		{"공급가액", ux.FormatAmount(res.Breakdown.SubTotal)},
		{"부가세", ux.FormatAmount(res.Breakdown.VAT)},
		{"합계", ux.FormatAmount(res.Breakdown.Total)},
	}
	if len(res.Timeline) > 0 {
		rows = append(rows, []string{"기간", res.Duration.String()})
	}
	rows = append(rows,
		[]string{"토큰", ux.FormatTokens(res.TokensUsed)},
		[]string{"비용", ux.FormatCost(res.Cost)},
		[]string{"소요 시간", ux.FormatDuration(res.Elapsed)},
	)
	ux.PrintSummaryTable(rows)

	if len(res.Adjustments) > 0 {
		ux.PrintWarning("금액 %d건을 예산에 맞게 조정했습니다", len(res.Adjustments))
	}
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
