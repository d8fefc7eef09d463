package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
	"google.golang.org/genai"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

const ModelName = "gemini-2.5-flash"

// ResumeAnalysis is the resume-side score breakdown. All percentages 0-100.
type ResumeAnalysis struct {
	ResumeScore     float64 `json:"resume_score"`
	SkillsMatch     float64 `json:"skills_match_percent"`
	ExperienceMatch float64 `json:"experience_match_percent"`
	EducationMatch  float64 `json:"education_match_percent"`
	Summary         string  `json:"summary"`
}

// InterviewAnalysis is the interview-side score produced from a transcript.
type InterviewAnalysis struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// ResumeAnalyzer scores resumes and interview transcripts. Callers treat
// failure as non-fatal and fall back to NeutralResumeAnalysis.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, resume []byte, mimeType, roleDescription string) (*ResumeAnalysis, error)
	AnalyzeTranscript(ctx context.Context, transcript string, rubric models.Rubric) (*InterviewAnalysis, error)
}

// NeutralResumeAnalysis is recorded when analysis fails or returns malformed
// data. A failed analysis must never block the submission flow.
func NeutralResumeAnalysis() *ResumeAnalysis {
	return &ResumeAnalysis{
		ResumeScore:     50,
		SkillsMatch:     50,
		ExperienceMatch: 50,
		EducationMatch:  50,
		Summary:         "Automated resume analysis was unavailable; neutral scores recorded.",
	}
}

// GeminiService handles all Gemini AI operations for resume and transcript scoring
type GeminiService struct {
	genaiClient *genai.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil
	}

	return &GeminiService{genaiClient: genaiClient}
}

// AnalyzeResume extracts text from the uploaded document and scores it
// against the role description.
func (g *GeminiService) AnalyzeResume(ctx context.Context, resume []byte, mimeType, roleDescription string) (*ResumeAnalysis, error) {
	if g == nil || g.genaiClient == nil {
		return nil, apperrors.New(apperrors.KindUpstream, "genai client not initialized")
	}

	text, err := extractResumeText(resume, mimeType)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are an expert technical recruiter. Score the following resume against the role description.

Role description:
%s

Resume:
%s

Respond with ONLY a JSON object (no markdown, no backticks, no explanation):
{
  "resume_score": <overall match 0-100>,
  "skills_match_percent": <0-100>,
  "experience_match_percent": <0-100>,
  "education_match_percent": <0-100>,
  "summary": "<2-4 sentence assessment of fit>"
}

Rules:
- Score only what the resume states. Don't invent experience.
- All scores are integers or decimals in [0, 100].`, roleDescription, text)

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "resume analysis failed", err)
	}

	var analysis ResumeAnalysis
	if err := parseStructuredResponse(result.Text(), &analysis); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "resume analysis returned malformed data", err)
	}

	analysis.ResumeScore = clampScore(analysis.ResumeScore)
	analysis.SkillsMatch = clampScore(analysis.SkillsMatch)
	analysis.ExperienceMatch = clampScore(analysis.ExperienceMatch)
	analysis.EducationMatch = clampScore(analysis.EducationMatch)
	if analysis.Summary == "" {
		analysis.Summary = "No summary provided"
	}

	slog.Info("Resume analyzed", "resume_score", analysis.ResumeScore)
	return &analysis, nil
}

// AnalyzeTranscript scores an interview transcript against the role rubric.
func (g *GeminiService) AnalyzeTranscript(ctx context.Context, transcript string, rubric models.Rubric) (*InterviewAnalysis, error) {
	if g == nil || g.genaiClient == nil {
		return nil, apperrors.New(apperrors.KindUpstream, "genai client not initialized")
	}

	var rubricText strings.Builder
	for _, item := range rubric {
		rubricText.WriteString(fmt.Sprintf("- [%s] %s\n", item.Category, item.Question))
	}

	prompt := fmt.Sprintf(`You are an expert interviewer reviewing an AI video-interview transcript.

Interview rubric:
%s

Transcript:
%s

Respond with ONLY a JSON object (no markdown, no backticks, no explanation):
{
  "score": <overall interview performance 0-100>,
  "summary": "<2-4 sentence assessment>"
}`, rubricText.String(), transcript)

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "transcript analysis failed", err)
	}

	var analysis InterviewAnalysis
	if err := parseStructuredResponse(result.Text(), &analysis); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "transcript analysis returned malformed data", err)
	}

	analysis.Score = clampScore(analysis.Score)
	slog.Info("Interview transcript analyzed", "score", analysis.Score)
	return &analysis, nil
}

// extractResumeText pulls plain text out of the uploaded document. docconv
// dispatches on the MIME type and returns the extracted body.
func extractResumeText(resume []byte, mimeType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(resume), mimeType, true)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstream, "resume text extraction failed", err)
	}
	if res == nil || strings.TrimSpace(res.Body) == "" {
		return "", apperrors.New(apperrors.KindUpstream, "resume contained no extractable text")
	}
	return res.Body, nil
}

// parseStructuredResponse unmarshals a model response, stripping markdown
// code fences the model sometimes wraps JSON in.
func parseStructuredResponse(text string, out interface{}) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parsing model response: %w (raw: %s)", err, text)
	}
	return nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
