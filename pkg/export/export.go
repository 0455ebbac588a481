// Package export writes finished estimates to disk as standalone HTML or
// renders them to PDF with headless Chromium.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single PDF render.
const DefaultTimeout = 30 * time.Second

const printCSS = `<style>html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}` +
	`@media print{@page{size:A4;margin:12mm;} body{background:#fff !important;} .no-print{display:none !important;}}</style>`

// PDFRenderer renders an HTML document to PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromiumRenderer prints documents through a headless Chromium.
type ChromiumRenderer struct {
	chromePath string
	timeout    time.Duration
}

// NewChromiumRenderer creates a renderer. An empty chromePath is looked up
// in the usual install locations, falling back to chromedp's own search.
func NewChromiumRenderer(chromePath string, timeout time.Duration) *ChromiumRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChromiumRenderer{chromePath: chromePath, timeout: timeout}
}

// RenderPDF prints html on A4 with backgrounds and a page-number footer.
func (r *ChromiumRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(PrepareForPrint(html)))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.4).
				WithMarginBottom(0.6).
				WithMarginLeft(0.4).
				WithMarginRight(0.4).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

var headClose = regexp.MustCompile(`(?i)</head>`)

// PrepareForPrint injects print color and page rules into the document head,
// adding a minimal HTML shell when the input is a bare fragment.
func PrepareForPrint(html string) string {
	return withHead(html, printCSS)
}

// Standalone makes html a complete UTF-8 document that opens correctly from
// disk.
func Standalone(html string) string {
	return withHead(html, `<meta charset="utf-8">`)
}

func withHead(html, inject string) string {
	if loc := headClose.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + inject + html[loc[0]:]
	}
	return "<!DOCTYPE html><html><head>" + inject + "</head><body>" + html + "</body></html>"
}

// SaveHTML writes a standalone copy of html to path, creating parent
// directories as needed.
func SaveHTML(path, html string) error {
	return write(path, []byte(Standalone(html)))
}

// SavePDF renders html and writes the PDF to path.
func SavePDF(ctx context.Context, r PDFRenderer, path, html string) error {
	pdf, err := r.RenderPDF(ctx, html)
	if err != nil {
		return err
	}
	return write(path, pdf)
}

func write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// Filename builds "견적서_<project>_<yyyymmdd>.<ext>".
func Filename(project string, at time.Time, ext string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(project), "_"), "_")
	if name == "" {
		name = "estimate"
	}
	return fmt.Sprintf("견적서_%s_%s.%s", name, at.Format("20060102"), strings.TrimPrefix(ext, "."))
}

func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
