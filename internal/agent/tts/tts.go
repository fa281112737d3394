// Package tts is the text-to-speech agent: it synthesizes speech for the
// submitted text through the Gemini API and returns the audio inline as a
// WAV file artifact.
package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/agent"
)

// AgentID is the mount path and registry key of this agent.
const AgentID = "text-to-speech"

const noInputText = "No text content detected. Please provide text to convert to speech."

// MimeTypes lists the file types this agent accepts.
var MimeTypes = []string{"text/plain"}

// artifactName matches the name the webhook consumers key on.
const artifactName = "text_to_speech_audio"

// Synthesizer converts text to WAV audio. Implemented by the Gemini client;
// swapped for a stub in tests.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (wavBase64 string, durationSeconds float64, err error)
}

// PipelineConfig returns the processing configuration for this agent.
func PipelineConfig(synth Synthesizer, budget *Budget) agent.Config {
	return agent.Config{
		AgentID:     AgentID,
		MimeFilter:  MimeTypes,
		NoInputText: noInputText,
		Accepts: func(in agent.Input) bool {
			return strings.TrimSpace(in.Text) != ""
		},
		Working: func(agent.Input) string {
			return "Converting text to speech..."
		},
		Transform: func(ctx context.Context, in agent.Input) []agent.Result {
			return transform(ctx, synth, budget, in)
		},
	}
}

// transform is a single-item batch: the whole joined text is one input.
func transform(ctx context.Context, synth Synthesizer, budget *Budget, in agent.Input) []agent.Result {
	text := strings.TrimSpace(in.Text)
	opts := ParseOptions(text)
	text = budget.Truncate(text)

	wavB64, duration, err := synth.Synthesize(ctx, text, opts.Voice)
	if err != nil {
		return []agent.Result{{Err: fmt.Errorf("synthesize speech: %w", err)}}
	}

	file := &a2a.FileContent{
		Name:     artifactName + ".wav",
		MimeType: "audio/wav",
		Bytes:    wavB64,
	}
	return []agent.Result{{
		Parts: []a2a.Part{
			a2a.NewTextPart(fmt.Sprintf("✅ Successfully converted text to speech (%.1fs)", duration)),
			a2a.NewFilePart(file),
		},
		Artifact: &a2a.Artifact{
			Name:        artifactName,
			Description: fmt.Sprintf("Audio conversion (%.1fs)", duration),
			Parts: []a2a.Part{
				a2a.NewTextPart(fmt.Sprintf("Speech audio, %.1f seconds", duration)),
				a2a.NewFilePart(file),
			},
		},
	}}
}
