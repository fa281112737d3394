package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

const synthesisTimeout = 60 * time.Second

// GeminiClient synthesizes speech through the Gemini generateContent API
// with the AUDIO response modality.
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGeminiClient creates a client for the given API key and model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: synthesisTimeout},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					Data string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Synthesize converts text to speech, returning base64 WAV audio and its
// duration in seconds.
func (g *GeminiClient) Synthesize(ctx context.Context, text, voice string) (string, float64, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("empty text provided")
	}
	if g.apiKey == "" {
		return "", 0, fmt.Errorf("gemini API key is required")
	}

	payload := generateRequest{
		Contents: []content{{Parts: []contentPart{{Text: strings.TrimSpace(text)}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice}},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("call speech API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("speech API status %d: %s", resp.StatusCode, snippet)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("speech API returned no audio")
	}

	pcm, err := base64.StdEncoding.DecodeString(decoded.Candidates[0].Content.Parts[0].InlineData.Data)
	if err != nil {
		return "", 0, fmt.Errorf("decode audio data: %w", err)
	}

	wav := wrapWAV(pcm)
	return base64.StdEncoding.EncodeToString(wav), pcmDuration(pcm), nil
}
