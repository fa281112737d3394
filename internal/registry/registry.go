// Package registry is the static catalog of agents this process hosts:
// their identifiers, delivery capabilities, and card metadata. The server
// mounts endpoints from it and the gateway reads capabilities through the
// cards it serves.
package registry

import (
	"fmt"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/agent/docmd"
	"github.com/telex-integrations/agentrelay/internal/agent/tts"
)

// Agent describes one hosted agent.
type Agent struct {
	ID           string
	Name         string
	Description  string
	DefaultText  string
	Capabilities a2a.AgentCapabilities
	InputModes   []string
	OutputModes  []string
	Skills       []a2a.AgentSkill
}

var agents = []Agent{
	{
		ID:          docmd.AgentID,
		Name:        "PDF to Markdown agent",
		Description: "An agent that converts PDF to markdown.",
		DefaultText: "Convert the attached PDF to markdown",
		Capabilities: a2a.AgentCapabilities{
			Streaming:              true,
			PushNotifications:      true,
			StateTransitionHistory: true,
		},
		InputModes:  []string{"text/plain", "application/pdf", "text/html"},
		OutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{{
			ID:          "convert_pdf_to_markdown",
			Name:        "Convert PDF to Markdown",
			Description: "Converts a given PDF to markdown and streams the response",
			Tags:        []string{"pdf", "markdown"},
			Examples: []string{
				"Help convert this PDF to markdown",
				"Extract the new humans section of the pdf and change it to markdown",
			},
			InputModes:  []string{"text/plain"},
			OutputModes: []string{"text/plain"},
		}},
	},
	{
		ID:          tts.AgentID,
		Name:        "Text to speech agent",
		Description: "An agent that converts text to speech audio.",
		DefaultText: "Convert the following text to speech:",
		Capabilities: a2a.AgentCapabilities{
			Streaming:              true,
			PushNotifications:      true,
			StateTransitionHistory: true,
		},
		InputModes:  []string{"text/plain"},
		OutputModes: []string{"audio/wav"},
		Skills: []a2a.AgentSkill{{
			ID:          "convert_text_to_speech",
			Name:        "Convert Text to Speech",
			Description: "Converts given text to speech audio with customizable options",
			Tags:        []string{"tts", "speech", "audio", "voice"},
			Examples: []string{
				"Convert this text to speech",
				"Make this into audio with Alloy voice",
				"Generate speech from this text using Nova voice",
				"Read this text aloud with a male voice",
				"Use Kore voice to speak this text",
			},
			InputModes:  []string{"text/plain"},
			OutputModes: []string{"audio/wav"},
		}},
	},
}

// All returns every hosted agent in mount order.
func All() []Agent {
	return agents
}

// Get looks an agent up by ID.
func Get(id string) (Agent, bool) {
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// Card builds the self-description served at /.well-known/agent.json. In
// the local environment the name carries a timestamp suffix so stale
// deployments are visible at a glance.
func (a Agent) Card(baseURL, env string) a2a.AgentCard {
	name := a.Name
	if env == "local" {
		name = fmt.Sprintf("%s %s", a.Name, time.Now().Format("2006-01-02 15:04:05"))
	}
	agentURL := fmt.Sprintf("%s/%s", baseURL, a.ID)
	return a2a.AgentCard{
		Name:        name,
		Description: a.Description,
		URL:         agentURL,
		Provider: &a2a.AgentProvider{
			Organization: "Telex",
			URL:          "https://www.telex.im",
		},
		Version:            "1.0.0",
		DocumentationURL:   agentURL + "/docs",
		Capabilities:       a.Capabilities,
		Authentication:     &a2a.AgentAuthentication{Schemes: []string{"Bearer"}},
		DefaultInputModes:  a.InputModes,
		DefaultOutputModes: a.OutputModes,
		Skills:             a.Skills,
	}
}
