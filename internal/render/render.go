// Package render turns structured tailored-resume and cover-letter content
// into PDF files. It builds HTML with the standard library's html/template
// (no HTML templating library is wired into the example pack) and prints it
// to PDF using the same go-rod browser stack the Apply Worker already
// drives, rather than introducing a new rendering dependency.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const resumeTemplateSrc = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; margin: 2.5cm; color: #1a1a1a; }
h1 { font-size: 18pt; margin-bottom: 0; }
.contact { color: #555; margin-bottom: 1em; }
h2 { font-size: 12pt; border-bottom: 1px solid #ccc; margin-top: 1.2em; }
ul { margin: 0.2em 0; padding-left: 1.2em; }
.entry { margin-bottom: 0.8em; }
.entry-title { font-weight: bold; }
</style></head>
<body>
<h1>{{.CandidateName}}</h1>
<div class="contact">{{.ContactInfo}}</div>
<h2>Summary</h2>
<p>{{.Summary}}</p>
<h2>Technical Skills</h2>
<p>{{range $i, $s := .Skills}}{{if $i}}, {{end}}{{$s}}{{end}}</p>
<h2>Experience</h2>
{{range .Experience}}<div class="entry"><div class="entry-title">{{.}}</div></div>{{end}}
<h2>Projects</h2>
{{range .Projects}}<div class="entry">{{.}}</div>{{end}}
<h2>Education</h2>
<p>{{.Education}}</p>
</body></html>`

const coverLetterTemplateSrc = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; margin: 2.5cm; color: #1a1a1a; line-height: 1.5; }
.header { margin-bottom: 2em; }
.date { margin-bottom: 1em; }
p { margin-bottom: 1em; }
</style></head>
<body>
<div class="header">
<div>{{.CandidateName}}</div>
<div>{{.CandidateEmail}} | {{.CandidatePhone}}</div>
</div>
<div class="date">{{.Date}}</div>
<p>{{.Greeting}}</p>
<p>{{.OpeningParagraph}}</p>
{{range .BodyParagraphs}}<p>{{.}}</p>{{end}}
<p>{{.ClosingParagraph}}</p>
<p>{{.SignOff}}<br>{{.CandidateName}}</p>
</body></html>`

var (
	resumeTemplate       = template.Must(template.New("resume").Parse(resumeTemplateSrc))
	coverLetterTemplate  = template.Must(template.New("cover_letter").Parse(coverLetterTemplateSrc))
)

// ResumeData is the structured content a tailored resume renders from.
type ResumeData struct {
	CandidateName string
	ContactInfo   string
	Summary       string
	Skills        []string
	Experience    []string
	Projects      []string
	Education     string
}

// CoverLetterData is the structured content a cover letter renders from.
type CoverLetterData struct {
	CandidateName    string
	CandidateEmail   string
	CandidatePhone   string
	Date             string
	Greeting         string
	OpeningParagraph string
	BodyParagraphs   []string
	ClosingParagraph string
	SignOff          string
}

// PagePrinter is the narrow go-rod capability the Renderer needs: a page
// that can navigate to an HTML string and print itself to PDF bytes.
type PagePrinter interface {
	NavigateHTML(ctx context.Context, html string) error
	PrintToPDF(ctx context.Context) ([]byte, error)
}

// RodPagePrinter adapts a *rod.Page to PagePrinter.
type RodPagePrinter struct {
	Page *rod.Page
}

// NavigateHTML loads html as the page's document via a data: URL.
func (p *RodPagePrinter) NavigateHTML(ctx context.Context, html string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(html))
	if err := p.Page.Navigate("data:text/html;base64," + encoded); err != nil {
		return err
	}
	return p.Page.WaitLoad()
}

// PrintToPDF renders the current page to PDF bytes.
func (p *RodPagePrinter) PrintToPDF(ctx context.Context) ([]byte, error) {
	reader, err := p.Page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		MarginTop:       0,
		MarginBottom:    0,
		MarginLeft:      0,
		MarginRight:     0,
	})
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, rerr := reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			break
		}
	}
	return buf, nil
}

// Renderer renders resumes and cover letters to PDF files via a PagePrinter.
type Renderer struct {
	newPrinter func(ctx context.Context) (PagePrinter, error)
}

// New creates a Renderer. newPrinter must return a fresh page each call;
// the Renderer closes nothing itself, leaving page lifecycle to the caller's
// browser context manager.
func New(newPrinter func(ctx context.Context) (PagePrinter, error)) *Renderer {
	return &Renderer{newPrinter: newPrinter}
}

// RenderResumePDF renders data to outputPath.
func (r *Renderer) RenderResumePDF(ctx context.Context, data ResumeData, outputPath string) error {
	var sb strings.Builder
	if err := resumeTemplate.Execute(&sb, data); err != nil {
		return fmt.Errorf("render resume template: %w", err)
	}
	return r.writePDF(ctx, sb.String(), outputPath)
}

// RenderCoverLetterPDF renders data to outputPath.
func (r *Renderer) RenderCoverLetterPDF(ctx context.Context, data CoverLetterData, outputPath string) error {
	var sb strings.Builder
	if err := coverLetterTemplate.Execute(&sb, data); err != nil {
		return fmt.Errorf("render cover letter template: %w", err)
	}
	return r.writePDF(ctx, sb.String(), outputPath)
}

func (r *Renderer) writePDF(ctx context.Context, html, outputPath string) error {
	printer, err := r.newPrinter(ctx)
	if err != nil {
		return fmt.Errorf("acquire render page: %w", err)
	}
	if err := printer.NavigateHTML(ctx, html); err != nil {
		return fmt.Errorf("navigate render page: %w", err)
	}
	pdfBytes, err := printer.PrintToPDF(ctx)
	if err != nil {
		return fmt.Errorf("print to pdf: %w", err)
	}
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0644); err != nil {
		return fmt.Errorf("write pdf %s: %w", outputPath, err)
	}
	return nil
}
