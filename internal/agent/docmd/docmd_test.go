package docmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/agent"
)

// minimalPDF assembles a one-page PDF containing the given text, computing
// the xref offsets as it writes.
func minimalPDF(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 6)

	write := func(s string) {
		buf.WriteString(s)
	}
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		write(body)
	}

	write("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	object("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	object(fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))

	xrefAt := buf.Len()
	write("xref\n0 6\n0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	write(fmt.Sprintf("%d\n%%%%EOF\n", xrefAt))
	return buf.Bytes()
}

func TestExtractPDFText(t *testing.T) {
	text, err := ExtractPDFText(minimalPDF("Hello PDF"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(text, "## Page 1") {
		t.Errorf("page heading missing from %q", text)
	}
	if !strings.Contains(text, "Hello PDF") {
		t.Errorf("page text missing from %q", text)
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	if _, err := ExtractPDFText([]byte("not a pdf")); err == nil {
		t.Error("garbage input should fail extraction")
	}
}

func TestConvertHTML(t *testing.T) {
	md, err := ConvertHTML([]byte("<h1>Title</h1><p>Some <strong>bold</strong> text.</p>"))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.Contains(md, "# Title") {
		t.Errorf("heading not converted: %q", md)
	}
	if !strings.Contains(md, "**bold**") {
		t.Errorf("bold not converted: %q", md)
	}
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func TestTransformProducesArtifactPerFile(t *testing.T) {
	in := agent.Input{Files: []*a2a.FileContent{
		{Name: "a.pdf", MimeType: "application/pdf", Bytes: b64(minimalPDF("doc a"))},
		{Name: "b.html", MimeType: "text/html", Bytes: b64([]byte("<p>doc b</p>"))},
	}}

	results := Transform(context.Background(), in)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("%s failed: %v", res.Name, res.Err)
		}
	}
	if results[0].Artifact.Name != "a.pdf.md" || results[1].Artifact.Name != "b.html.md" {
		t.Errorf("artifact names: %s, %s", results[0].Artifact.Name, results[1].Artifact.Name)
	}
}

func TestTransformConcatenatesChunkedUploads(t *testing.T) {
	encoded := b64(minimalPDF("chunked doc"))
	half := len(encoded) / 2
	// Base64 chunks must stay 4-aligned to decode after concatenation.
	half -= half % 4
	in := agent.Input{Files: []*a2a.FileContent{
		{Name: "big.pdf", MimeType: "application/pdf", Bytes: encoded[:half]},
		{Name: "big.pdf", MimeType: "application/pdf", Bytes: encoded[half:]},
	}}

	results := Transform(context.Background(), in)
	if len(results) != 1 {
		t.Fatalf("chunks of one name should merge into one result, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("merged upload failed: %v", results[0].Err)
	}
	text := a2a.ExtractParts(a2a.Message{Parts: results[0].Parts}, nil).JoinedText
	if !strings.Contains(text, "chunked doc") {
		t.Errorf("merged content missing: %q", text)
	}
}

func TestTransformIsolatesItemFailure(t *testing.T) {
	in := agent.Input{Files: []*a2a.FileContent{
		{Name: "broken.pdf", MimeType: "application/pdf", Bytes: "!!!not-base64!!!"},
		{Name: "ok.html", MimeType: "text/html", Bytes: b64([]byte("<p>fine</p>"))},
	}}

	results := Transform(context.Background(), in)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Error("broken.pdf should fail")
	}
	if results[1].Err != nil {
		t.Errorf("ok.html should survive its sibling's failure: %v", results[1].Err)
	}
}

func TestPipelineConfigRejectsTextOnly(t *testing.T) {
	cfg := PipelineConfig()
	if cfg.Accepts(agent.Input{Text: "just words"}) {
		t.Error("text without files is not convertible input")
	}
	if !cfg.Accepts(agent.Input{Files: []*a2a.FileContent{{Name: "a.pdf"}}}) {
		t.Error("file input should be accepted")
	}
}
