// Package intent classifies an utterance into a closed set of topics.
//
// Classification is keyword-based and bilingual (English + Swedish) so that
// children mixing languages still land in the right branch. It is shared by
// every generation provider — the remote model never decides the intent.
package intent

import (
	"strings"

	"github.com/bluehawana/totoyai/internal/conversation"
)

// Keyword sets are checked in a fixed priority order: weather beats story
// beats song beats math. The first matching set wins.
var (
	weatherWords = []string{"weather", "temperature", "rain", "sunny", "väder", "vädret", "regn"}
	storyWords   = []string{"story", "tell me", "once upon", "berättelse", "saga", "berätta"}
	songWords    = []string{"sing", "song", "music", "sjung", "sång", "musik"}
	mathWords    = []string{"math", "plus", "minus", "times", "divide", "calculate", "räkna", "matte"}
)

// Classify returns the topic of an utterance. Unmatched utterances are general.
func Classify(utterance string) conversation.Intent {
	lower := strings.ToLower(utterance)

	switch {
	case containsAny(lower, weatherWords):
		return conversation.IntentWeather
	case containsAny(lower, storyWords):
		return conversation.IntentStory
	case containsAny(lower, songWords):
		return conversation.IntentSong
	case containsAny(lower, mathWords):
		return conversation.IntentMath
	default:
		return conversation.IntentGeneral
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
