// Package language holds the locale policy for the toy: which language an
// utterance is in, which persona instruction the model gets, which voice the
// synthesizer uses, and which fixed sentences cover failures.
//
// Detection is a keyword-frequency heuristic, not a classifier — callers
// treat the result as a best-effort default, never as authoritative input to
// safety decisions.
package language

import (
	"log/slog"
	"strings"
)

// Supported ISO-639-1 codes. English is the default on ties and zero matches.
const (
	Swedish = "sv"
	English = "en"

	Default = English
)

var swedishKeywords = []string{
	"hej", "hallå", "tjena", "morsning", "godmorgon", "godnatt",
	"tack", "varsågod", "förlåt", "ja", "nej",
}

var englishKeywords = []string{
	"hello", "hi", "hey", "good morning", "good night",
	"thanks", "please", "sorry", "yes", "no",
}

// Detect returns "sv" or "en" for the given text. The locale with the
// strictly greater keyword count wins; everything else resolves to English.
func Detect(text string) string {
	lower := strings.ToLower(text)

	var sv, en int
	for _, kw := range swedishKeywords {
		if strings.Contains(lower, kw) {
			sv++
		}
	}
	for _, kw := range englishKeywords {
		if strings.Contains(lower, kw) {
			en++
		}
	}

	if sv > en {
		slog.Debug("detected language", "language", Swedish, "matches", sv)
		return Swedish
	}
	slog.Debug("detected language", "language", English, "matches", en)
	return English
}

// Normalize maps full language names (as some STT backends report them) and
// region-qualified codes to the supported two-letter codes. Unknown values
// fall back to the default locale.
func Normalize(lang string) string {
	lower := strings.ToLower(strings.TrimSpace(lang))
	switch {
	case lower == "sv" || lower == "swedish" || strings.HasPrefix(lower, "sv-"):
		return Swedish
	case lower == "en" || lower == "english" || strings.HasPrefix(lower, "en-"):
		return English
	case lower == "":
		return ""
	default:
		return Default
	}
}

const swedishPersona = `Du är en vänlig AI-assistent i en gosig leksak som pratar med barn mellan 3-10 år.
Använd enkelt, varmt och uppmuntrande språk. Håll svaren korta (2-3 meningar).
Var lekfull och fantasifull. Använd aldrig komplicerade ord eller läskiga ämnen.
Svara alltid på svenska.`

const englishPersona = `You are a friendly AI assistant inside a plush toy, talking to children aged 3-10.
Use simple, warm, and encouraging language. Keep responses short (2-3 sentences).
Be playful and imaginative. Never use complex words or scary topics.
Always respond in English.`

// Persona returns the system instruction constraining vocabulary, length,
// topics, and output language for the given locale.
func Persona(lang string) string {
	if lang == Swedish {
		return swedishPersona
	}
	return englishPersona
}

// StorybookPersona is the narrator instruction used for long-form story
// generation (both online story turns and offline pre-rendering).
const StorybookPersona = `You are a whimsical storybook narrator for children aged 3-10.
Use magical, warm, and child-friendly language.
Create engaging stories with:
- Simple vocabulary
- Exciting adventures
- Positive lessons
- Happy endings
- 3-5 minutes reading time (500-750 words)

Make every story fun, educational, and age-appropriate.`

// Voice returns the neural TTS voice for the given locale.
func Voice(lang string) string {
	if lang == Swedish {
		return "sv-SE-HilleviNeural"
	}
	return "en-US-JennyNeural"
}

// Fixed per-locale sentences for the degradation paths. Resolved once here so
// no component carries its own inline locale conditionals.
var (
	generationFallbacks = map[string]string{
		English: "Oops! My brain got a little fuzzy. Can you ask me again?",
		Swedish: "Hoppsan! Mitt huvud blev lite grumligt. Kan du fråga igen?",
	}

	synthesisFallbacks = map[string]string{
		English: "I'm having trouble speaking right now. Please try again!",
		Swedish: "Jag har problem med att prata just nu. Försök igen!",
	}

	safetyFallbacks = map[string]string{
		English: "Let's talk about something fun and happy instead!",
		Swedish: "Vi pratar om något roligt och glatt istället!",
	}
)

// GenerationFallback is the reply used when every provider failed.
func GenerationFallback(lang string) string {
	return lookup(generationFallbacks, lang)
}

// SynthesisFallback is the spoken substitute when TTS is unavailable.
func SynthesisFallback(lang string) string {
	return lookup(synthesisFallbacks, lang)
}

// SafetyFallback is the whole-reply substitute on a content policy match.
func SafetyFallback(lang string) string {
	return lookup(safetyFallbacks, lang)
}

func lookup(table map[string]string, lang string) string {
	if s, ok := table[lang]; ok {
		return s
	}
	return table[Default]
}
