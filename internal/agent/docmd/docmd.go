// Package docmd is the pdf-to-markdown agent: it turns uploaded PDF (and
// HTML) files into markdown text, one artifact per file.
package docmd

import (
	"context"
	"fmt"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/agent"
)

// AgentID is the mount path and registry key of this agent.
const AgentID = "pdf-to-markdown"

const noInputText = "No PDF files detected. Please upload a PDF file to convert to Markdown."

// MimeTypes lists the file types this agent accepts.
var MimeTypes = []string{"application/pdf", "text/html"}

// PipelineConfig returns the processing configuration for this agent.
func PipelineConfig() agent.Config {
	return agent.Config{
		AgentID:     AgentID,
		MimeFilter:  MimeTypes,
		NoInputText: noInputText,
		Accepts: func(in agent.Input) bool {
			return len(in.Files) > 0
		},
		Working: func(in agent.Input) string {
			if len(in.Files) == 1 {
				return fmt.Sprintf("Processing PDF: **%s**", in.Files[0].Name)
			}
			return fmt.Sprintf("Processing %d files", len(in.Files))
		},
		Transform: Transform,
	}
}

// Transform converts each uploaded file independently. Files sharing a name
// are treated as chunks of one upload and have their base64 content
// concatenated before decoding. One file's failure never aborts the others.
func Transform(ctx context.Context, in agent.Input) []agent.Result {
	type upload struct {
		name     string
		mimeType string
		content  string
	}
	var uploads []*upload
	byName := make(map[string]*upload)
	for _, f := range in.Files {
		if u, seen := byName[f.Name]; seen {
			u.content += f.Bytes
			continue
		}
		u := &upload{name: f.Name, mimeType: f.MimeType, content: f.Bytes}
		byName[f.Name] = u
		uploads = append(uploads, u)
	}

	var results []agent.Result
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			results = append(results, agent.Result{Name: u.name, Err: err})
			continue
		}
		markdown, err := convert(u.name, u.mimeType, u.content)
		if err != nil {
			results = append(results, agent.Result{Name: u.name, Err: err})
			continue
		}
		results = append(results, agent.Result{
			Name: u.name,
			Parts: []a2a.Part{
				a2a.NewTextPart(fmt.Sprintf("Processing PDF: **%s**", u.name)),
				a2a.NewTextPart(markdown),
			},
			Artifact: &a2a.Artifact{
				Name:        u.name + ".md",
				Description: fmt.Sprintf("Markdown conversion of %s", u.name),
				Parts:       []a2a.Part{a2a.NewTextPart(markdown)},
			},
		})
	}
	return results
}

func convert(name, mimeType, content string) (string, error) {
	data, err := a2a.DecodeBase64(content)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	if mimeType == "text/html" {
		return ConvertHTML(data)
	}
	return ExtractPDFText(data)
}
