package gateway

import "github.com/telex-integrations/agentrelay/internal/a2a"

// Strategy is how the gateway delivers one submission to its agent, picked
// from the agent's declared capabilities.
type Strategy int

const (
	// StrategyPush sends the task with a webhook callback; results arrive
	// through /webhook/{id}.
	StrategyPush Strategy = iota
	// StrategyStreaming consumes the agent's SSE response and relays each
	// frame.
	StrategyStreaming
	// StrategyBlocking waits for the single synchronous response.
	StrategyBlocking
)

func (s Strategy) String() string {
	switch s {
	case StrategyPush:
		return "push"
	case StrategyStreaming:
		return "streaming"
	default:
		return "blocking"
	}
}

// pickStrategy applies the fixed priority push > streaming > blocking.
func pickStrategy(caps a2a.AgentCapabilities) Strategy {
	switch {
	case caps.PushNotifications:
		return StrategyPush
	case caps.Streaming:
		return StrategyStreaming
	default:
		return StrategyBlocking
	}
}
