package intent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/intent"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		utterance string
		want      conversation.Intent
	}{
		{"english weather", "What's the weather like today?", conversation.IntentWeather},
		{"swedish weather", "Hur är vädret i Stockholm?", conversation.IntentWeather},
		{"english story", "Can you tell me a story?", conversation.IntentStory},
		{"swedish story", "Berätta en saga!", conversation.IntentStory},
		{"song", "Sing me a song please", conversation.IntentSong},
		{"swedish song", "Kan du sjunga för mig?", conversation.IntentSong},
		{"math", "What is two plus two?", conversation.IntentMath},
		{"swedish math", "Kan vi räkna lite?", conversation.IntentMath},
		{"general", "I like dinosaurs", conversation.IntentGeneral},
		{"empty", "", conversation.IntentGeneral},
		{"uppercase", "TELL ME A STORY", conversation.IntentStory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, intent.Classify(tc.utterance))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// Weather outranks story when an utterance matches both.
	got := intent.Classify("tell me a story about the rain")
	assert.Equal(t, conversation.IntentWeather, got)

	// Story outranks song.
	got = intent.Classify("sing me a story")
	assert.Equal(t, conversation.IntentStory, got)
}
