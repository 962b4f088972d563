package analyses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"mission-backend/internal/scoring"
	"mission-backend/internal/shared/storage/object"
	"mission-backend/internal/shared/telemetry"
)

const reportTemplate = `# Mission Statement Analysis

> {{ .Result.Text }}

- Industry: {{ .Result.Industry }}
- Words: {{ .Result.WordCount }}
- Overall: **{{ .Result.Overall }}/100** ({{ .Result.Label }})
- Source: {{ .Result.Source }}
{{- if .Result.Fallback }}
- Note: {{ .Result.Message }}
{{- end }}

## Scores

| Dimension | Score |
|---|---|
{{- range .Dimensions }}
| {{ title . }} | {{ $.Result.Scores.Get . }} |
{{- end }}

## Weaknesses

1. {{ title .Result.Weaknesses.Primary }}
2. {{ title .Result.Weaknesses.Secondary }}
3. {{ title .Result.Weaknesses.Tertiary }}
{{ if .Result.Recommendations }}
## Recommendations
{{ range .Result.Recommendations }}
- **{{ title .Category }}** ({{ .Severity }}): {{ .Issue }} {{ .Suggestion }}
{{- end }}
{{ end }}
{{- with .Result.Rewrites }}
## Alternative Rewrites

### Action-focused
{{ .ActionFocused.Text }}

_{{ .ActionFocused.Rationale }}_

### Problem-solution
{{ .ProblemSolution.Text }}

_{{ .ProblemSolution.Rationale }}_

### Vision-driven
{{ .VisionDriven.Text }}

_{{ .VisionDriven.Rationale }}_
{{ else }}
## Rewrite Plan
{{ range .Result.RewritePlan }}
- {{ .Strategy }}: target {{ .Target }}. {{ .Brief }}
{{- end }}
{{ end -}}
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"title": func(v any) string {
		s := fmt.Sprint(v)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}).Parse(reportTemplate))

// RenderReport renders a markdown report for analysis.
func RenderReport(analysis Analysis) ([]byte, error) {
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, struct {
		Result     Result
		Dimensions []scoring.Dimension
	}{analysis.Result, scoring.Dimensions})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Report returns the markdown report for an analysis, rendering and storing
// it on first use.
func (s *Service) Report(ctx context.Context, userID, analysisID string) ([]byte, error) {
	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if analysis.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: analysis is %s", ErrNotReady, analysis.Status)
	}

	if analysis.ReportKey != "" && s.Store != nil {
		if body, err := readObject(ctx, s, analysis.ReportKey); err == nil {
			return body, nil
		}
	}

	body, err := RenderReport(analysis)
	if err != nil {
		return nil, err
	}
	if s.Store == nil {
		return body, nil
	}
	stored, err := s.Store.Put(ctx, object.ReportKey(analysis.ID), "text/markdown; charset=utf-8", bytes.NewReader(body))
	if err != nil {
		telemetry.Warn("report.store_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
		return body, nil
	}
	if err := s.Repo.SetReportKey(ctx, analysis.ID, stored.Key); err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.Warn("report.key_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}
	return body, nil
}

func readObject(ctx context.Context, s *Service, key string) ([]byte, error) {
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
