package guide

import "fmt"

// MicrofictionSystemPrompt frames the story writer.
const MicrofictionSystemPrompt = `You are a creative writer specializing in microfiction.`

// MicrofictionPrompt asks for a 50-70 word story for mood.
func MicrofictionPrompt(mood string) string {
	return fmt.Sprintf(`Write a short story, between 50 and 70 words, based on the following mood: %s. `+
		`The goal is to enhance the meditative experience with imaginative storytelling.
Return only the story text.`, mood)
}

// SuggestionSystemPrompt frames the breathing coach.
const SuggestionSystemPrompt = `You are a calm, practical breathing coach.`

// SuggestionPrompt asks for a breathing pattern suited to mood, with timings.
func SuggestionPrompt(mood string) string {
	return fmt.Sprintf(`Based on the user's mood, suggest a breathing pattern that would be most suitable. Return instructions as well.

Mood: %s

Consider these patterns when formulating your suggestion: box breathing, triangular breathing. `+
		`Incorporate specific timing for each inhale, exhale, and hold, formatted as "Inhale: [seconds], Hold: [seconds], Exhale: [seconds]". `+
		`For example: "Box Breathing: Inhale: 4 seconds, Hold: 4 seconds, Exhale: 4 seconds, Hold: 4 seconds. Repeat."`, mood)
}

// ScriptSystemPrompt frames the meditation guide whose words become speech.
const ScriptSystemPrompt = `You write short guided-breathing scripts that will be read aloud by a text-to-speech voice. ` +
	`Return only the words to be spoken, with no headings, stage directions or markdown.`

// ScriptPrompt asks for a spoken script for one 30-second session.
func ScriptPrompt(req ScriptRequest) string {
	return fmt.Sprintf(`Create a short, calming script for a 30-second guided breathing session.
The user is feeling %[1]s. The breathing exercise is "%[2]s".

Instructions:
1. Start with a brief, welcoming sentence that acknowledges the user's mood.
2. Introduce the "%[2]s" technique and briefly explain its benefits for their current mood.
3. Clearly state the breathing pattern: "%[3]s".
4. Guide them through one full cycle of the pattern, clearly announcing each phase (e.g., "Now, inhale...", "Hold...", "Exhale...").
5. Keep the total script concise, suitable for a text-to-speech generation that will last around 20-25 seconds to fit within the 30-second session time.
`, req.Mood, req.PatternTitle, req.Instructions)
}
