// Package cover implements the cover-letter generation pipeline, sharing
// the Session/Event shape and the LLM/PDF collaborators of the resume
// tailoring pipeline.
package cover

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/render"
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

// PDFRenderer renders a cover letter to a PDF file.
type PDFRenderer interface {
	RenderCoverLetterPDF(ctx context.Context, data render.CoverLetterData, outputPath string) error
}

const coverLetterSystemPrompt = `You are an expert career writer. Write a concise, specific one-page cover letter for the candidate, addressing the target job description using only experience present in the candidate's resume. Never invent companies, skills, or achievements. Respond with the letter body as plain text paragraphs separated by blank lines.`

// Pipeline runs the cover-letter generation flow: extract -> generate ->
// render -> persist, emitting progress/done events on a Session's Queue.
type Pipeline struct {
	extract  TextExtractor
	llm      LLMGenerator
	renderer PDFRenderer
	versions VersionSaver
	outDir   string
	logger   *slog.Logger
}

// New creates a cover-letter Pipeline.
func New(extract TextExtractor, llm LLMGenerator, renderer PDFRenderer, versions VersionSaver, outDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{extract: extract, llm: llm, renderer: renderer, versions: versions, outDir: outDir, logger: logger}
}

// Run executes the pipeline for jobKey, pushing Events onto queue.
func (p *Pipeline) Run(ctx context.Context, jobKey string, job *models.Job, sourceResumePath, candidateName, candidateEmail, candidatePhone, todayFormatted string, queue *eventbus.Queue) {
	queue.Push(eventbus.Progress(jobKey, "Extracting resume text..."))
	resumeText, err := p.extract(sourceResumePath)
	if err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to extract resume text: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	queue.Push(eventbus.Progress(jobKey, "Generating cover letter..."))
	userMessage := fmt.Sprintf("Job description:\n%s\n\nCandidate resume:\n%s", job.Description, resumeText)
	letterText, err := p.llm.Generate(ctx, coverLetterSystemPrompt, userMessage)
	if err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to generate cover letter: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	queue.Push(eventbus.Progress(jobKey, "Rendering PDF..."))
	outputPath := fmt.Sprintf("%s/%s-cover-letter.pdf", strings.TrimRight(p.outDir, "/"), jobKey)
	paragraphs := strings.Split(strings.TrimSpace(letterText), "\n\n")
	data := render.CoverLetterData{
		CandidateName:    candidateName,
		CandidateEmail:   candidateEmail,
		CandidatePhone:   candidatePhone,
		Date:             todayFormatted,
		Greeting:         fmt.Sprintf("Dear %s Hiring Team,", job.Company),
		BodyParagraphs:   paragraphs,
		ClosingParagraph: "Thank you for your time and consideration.",
		SignOff:          "Sincerely,",
	}
	if len(paragraphs) > 0 {
		data.OpeningParagraph = paragraphs[0]
		data.BodyParagraphs = paragraphs[1:]
	}
	if err := p.renderer.RenderCoverLetterPDF(ctx, data, outputPath); err != nil {
		queue.Push(eventbus.Err(jobKey, fmt.Sprintf("failed to render cover letter pdf: %v", err)))
		queue.Push(eventbus.Done(jobKey, ""))
		return
	}

	if _, err := p.versions.SaveVersion(ctx, &models.ResumeVersion{
		JobKey:     jobKey,
		Kind:       models.VersionCoverLetter,
		FilePath:   outputPath,
		SourcePath: sourceResumePath,
	}); err != nil {
		p.logger.Warn("failed to persist cover letter version record", "job_key", jobKey, "error", err)
	}

	done := eventbus.Done(jobKey, "")
	done.HTML = fmt.Sprintf(`<div class="cover-letter-result"><a href="%s">Download cover letter</a></div>`, outputPath)
	queue.Push(done)
}
