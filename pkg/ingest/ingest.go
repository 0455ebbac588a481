// Package ingest turns uploaded reference files into plain text that can be
// attached to generation prompts.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	// MaxFileBytes bounds a single upload.
	MaxFileBytes = 20 * 1024 * 1024
	// MaxTextRunes bounds the text kept from a single file.
	MaxTextRunes = 24000

	truncatedMarker = "\n\n[이하 생략]"
)

// ErrUnsupportedFormat is returned for file types that cannot be read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// PDFRunner extracts the text of the PDF at path.
type PDFRunner func(ctx context.Context, path string) (string, error)

// Extractor converts files to text.
type Extractor struct {
	// PDF defaults to the pdftotext command line tool.
	PDF PDFRunner
}

// New returns an Extractor using pdftotext for PDFs.
func New() *Extractor {
	return &Extractor{PDF: runPdfToText}
}

// File is one uploaded file.
type File struct {
	Name string
	Data []byte
}

// Result is the text extracted from one file.
type Result struct {
	Name      string `json:"name"`
	Text      string `json:"text,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}

// Extract returns the plain text of a single file, chosen by extension.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) > MaxFileBytes {
		return "", fmt.Errorf("%s: file too large: %d bytes", name, len(data))
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".csv":
		text = decodeText(data)
	case ".html", ".htm":
		text, err = htmlText(data)
	case ".docx":
		text, err = docxText(data)
	case ".pdf":
		text, err = e.pdfText(ctx, data)
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(text), nil
}

// ExtractAll extracts every file. A failing file gets its own error and does
// not stop the others.
func (e *Extractor) ExtractAll(ctx context.Context, files []File) []Result {
	out := make([]Result, 0, len(files))
	for _, f := range files {
		text, err := e.Extract(ctx, f.Name, f.Data)
		r := Result{Name: f.Name}
		if err != nil {
			r.Err = err
			r.Error = err.Error()
		} else {
			r.Text, r.Truncated = truncate(text)
		}
		out = append(out, r)
	}
	return out
}

// Combine joins successful results into one attachment block, each file
// headed by its name.
func Combine(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err != nil || r.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== %s ===\n%s", r.Name, r.Text)
	}
	return b.String()
}

func truncate(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= MaxTextRunes {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:MaxTextRunes]) + truncatedMarker, true
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

var skipElements = map[string]bool{"script": true, "style": true, "head": true, "noscript": true}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "section": true, "article": true, "table": true,
}

func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	walk(root)
	return b.String(), nil
}

// docxText reads word/document.xml, emitting w:t runs and a newline per
// w:p paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("open docx: word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()

	var b strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func (e *Extractor) pdfText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "estimate-ingest-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	run := e.PDF
	if run == nil {
		run = runPdfToText
	}
	text, err := run(ctx, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no extractable text found")
	}
	return text, nil
}

func runPdfToText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
