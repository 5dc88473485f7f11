package language_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluehawana/totoyai/internal/language"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"swedish greeting", "hej, tack!", language.Swedish},
		{"english greeting", "hello, thanks!", language.English},
		{"empty defaults to english", "", language.English},
		{"no keywords defaults to english", "dinosaurier", language.English},
		{"tie defaults to english", "hej hello", language.English},
		{"mostly swedish", "hej hej tack förlåt hello", language.Swedish},
		{"case insensitive", "HEJ, TACK!", language.Swedish},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, language.Detect(tc.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sv", language.Swedish},
		{"swedish", language.Swedish},
		{"sv-SE", language.Swedish},
		{"en", language.English},
		{"English", language.English},
		{"en-US", language.English},
		{"", ""},
		{"de", language.Default},
		{"  sv  ", language.Swedish},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, language.Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestPersonaMatchesLocale(t *testing.T) {
	assert.Contains(t, language.Persona(language.Swedish), "på svenska")
	assert.Contains(t, language.Persona(language.English), "in English")
	// Unknown locales get the English persona.
	assert.Equal(t, language.Persona(language.English), language.Persona("de"))
}

func TestVoice(t *testing.T) {
	assert.Equal(t, "sv-SE-HilleviNeural", language.Voice(language.Swedish))
	assert.Equal(t, "en-US-JennyNeural", language.Voice(language.English))
	assert.Equal(t, "en-US-JennyNeural", language.Voice(""))
}

func TestFallbacksCoverBothLocales(t *testing.T) {
	for _, lang := range []string{language.Swedish, language.English} {
		assert.NotEmpty(t, language.GenerationFallback(lang))
		assert.NotEmpty(t, language.SynthesisFallback(lang))
		assert.NotEmpty(t, language.SafetyFallback(lang))
	}
	// Unknown locales resolve to the English sentence.
	assert.Equal(t, language.SafetyFallback(language.English), language.SafetyFallback("fr"))
}
