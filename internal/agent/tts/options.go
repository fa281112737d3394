package tts

import "strings"

// Options are the synthesis settings parsed from the user's text.
type Options struct {
	Voice string
}

// DefaultVoice is used when the text names no preference.
const DefaultVoice = "Kore"

// namedVoices in priority order: an explicit voice name wins over the
// male/female hints further down.
var namedVoices = []string{"Alloy", "Echo", "Fable", "Onyx", "Nova", "Shimmer", "Kore"}

// ParseOptions scans the input text for a voice request. Explicit voice
// names take precedence; generic male/female wording maps to Onyx/Nova.
func ParseOptions(input string) Options {
	lower := strings.ToLower(input)

	for _, voice := range namedVoices {
		if strings.Contains(lower, strings.ToLower(voice)) {
			return Options{Voice: voice}
		}
	}
	if strings.Contains(lower, "male") || strings.Contains(lower, "man") {
		// "female"/"woman" also contain "male"/"man"; check them first.
		if strings.Contains(lower, "female") || strings.Contains(lower, "woman") {
			return Options{Voice: "Nova"}
		}
		return Options{Voice: "Onyx"}
	}
	return Options{Voice: DefaultVoice}
}
