package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"mission-backend/internal/analyses"
	"mission-backend/internal/scoring"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

func checkFormat(format string, allowMarkdown bool) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	case formatMarkdown:
		if allowMarkdown {
			return nil
		}
	}
	return errors.Errorf("unsupported output format %q", format)
}

// writeStructured writes v as indented JSON or as YAML with the JSON field
// names, so both formats describe the same document.
func writeStructured(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	if format == formatJSON {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "decode json")
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	_, err = w.Write(out)
	return err
}

func writeResult(w io.Writer, format string, r analyses.Result) error {
	switch format {
	case formatJSON, formatYAML:
		return writeStructured(w, format, r)
	case formatMarkdown:
		out, err := analyses.RenderReport(analyses.Analysis{Result: r})
		if err != nil {
			return errors.Wrap(err, "render report")
		}
		_, err = w.Write(out)
		return err
	}

	fmt.Fprintf(w, "Overall: %d/100 (%s, %s)\n", r.Overall, r.Label, r.Band)
	fmt.Fprintf(w, "Industry: %s  Words: %d  Source: %s\n\n", r.Industry, r.WordCount, r.Source)
	if r.Fallback {
		fmt.Fprintf(w, "%s (%s)\n\n", r.Message, r.FallbackReason)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range scoring.Dimensions {
		fmt.Fprintf(tw, "%s\t%d\n", title(string(d)), r.Scores.Get(d))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nWeaknesses: %s, %s, %s\n", r.Weaknesses.Primary, r.Weaknesses.Secondary, r.Weaknesses.Tertiary)
	if r.Rewrites != nil {
		fmt.Fprintln(w, "\nRewrites:")
		for _, s := range scoring.Strategies {
			if rw, ok := r.Rewrites.Get(s); ok {
				fmt.Fprintf(w, "  %s: %s\n", s, rw.Text)
			}
		}
	} else {
		fmt.Fprintln(w, "\nRewrite plan:")
		for _, p := range r.RewritePlan {
			fmt.Fprintf(w, "  %s -> %s: %s\n", p.Strategy, p.Target, p.Brief)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  [%s] %s %s\n", rec.Severity, rec.Issue, rec.Suggestion)
		}
	}
	return nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
