package resume

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/render"
	"github.com/patrykgolabek/jobapply/internal/validator"
)

// LLMGenerator is the narrow port the pipeline needs from the LLM Invoker.
type LLMGenerator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// VersionSaver is the narrow write port the pipeline needs from the Resume
// Version Store.
type VersionSaver interface {
	SaveVersion(ctx context.Context, v *models.ResumeVersion) (*models.ResumeVersion, error)
}

// TextExtractor extracts plain text from a source PDF.
type TextExtractor func(path string) (string, error)

// PDFRenderer renders a tailored resume to a PDF file.
type PDFRenderer interface {
	RenderResumePDF(ctx context.Context, data render.ResumeData, outputPath string) error
}

const tailorSystemPrompt = `You are an expert resume writer. Rewrite the candidate's resume to emphasize experience relevant to the target job description. Never invent companies, skills, or metrics that are not present in the original resume. Respond with the tailored resume as plain text.`

// Pipeline runs the resume-tailoring flow: extract -> generate -> validate
// -> render -> persist, emitting progress/done events on a Session's Queue
// the same way the Apply Worker does.
type Pipeline struct {
	extract  TextExtractor
	llm      LLMGenerator
	renderer PDFRenderer
	versions VersionSaver
	outDir   string
	logger   *slog.Logger
}

// NewPipeline creates a resume-tailoring Pipeline.
func NewPipeline(extract TextExtractor, llm LLMGenerator, renderer PDFRenderer, versions VersionSaver, outDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{extract: extract, llm: llm, renderer: renderer, versions: versions, outDir: outDir, logger: logger}
}

// Run executes the pipeline for jobKey, pushing Events onto queue. It never
// panics; all failures are reported as an `error` Event before returning.
func (p *Pipeline) Run(ctx context.Context, jobKey string, job *models.Job, sourceResumePath, candidateName, contactInfo string, queue *eventbus.Queue) {
	queue.Push(eventbus.Progress(jobKey, "Extracting resume text..."))
	originalText, err := p.extract(sourceResumePath)
	if err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to extract resume text: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	queue.Push(eventbus.Progress(jobKey, "Generating tailored resume..."))
	userMessage := fmt.Sprintf("Job description:\n%s\n\nOriginal resume:\n%s", job.Description, originalText)
	tailoredText, err := p.llm.Generate(ctx, tailorSystemPrompt, userMessage)
	if err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to generate tailored resume: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	queue.Push(eventbus.Progress(jobKey, "Validating for fabrication..."))
	result := validator.ValidateNoFabrication(originalText, tailoredText)

	queue.Push(eventbus.Progress(jobKey, "Rendering PDF..."))
	outputPath := fmt.Sprintf("%s/%s-resume.pdf", strings.TrimRight(p.outDir, "/"), jobKey)
	data := render.ResumeData{
		CandidateName: candidateName,
		ContactInfo:   contactInfo,
		Summary:       tailoredText,
	}
	if err := p.renderer.RenderResumePDF(ctx, data, outputPath); err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to render resume pdf: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	if _, err := p.versions.SaveVersion(ctx, &models.ResumeVersion{
		JobKey:     jobKey,
		Kind:       models.VersionResume,
		FilePath:   outputPath,
		SourcePath: sourceResumePath,
	}); err != nil {
		p.logger.Warn("failed to persist resume version record", "job_key", jobKey, "error", err)
	}

	fragment := renderDoneFragment(outputPath, result)
	done := eventbus.Done(jobKey, "")
	done.HTML = fragment
	queue.Push(done)
}

func renderDoneFragment(downloadPath string, result validator.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<div class="tailor-result"><a href="%s">Download tailored resume</a>`, html.EscapeString(downloadPath)))
	if len(result.Warnings) > 0 {
		sb.WriteString(`<ul class="fabrication-warnings">`)
		for _, w := range result.Warnings {
			sb.WriteString("<li>" + html.EscapeString(w) + "</li>")
		}
		sb.WriteString("</ul>")
	}
	sb.WriteString("</div>")
	return sb.String()
}
