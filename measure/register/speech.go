package register

import "strings"

// SpeechLanguage is the BCP 47 tag of the synthesized reply.
const SpeechLanguage = "es-ES"

// SpeechParams are the synthesis settings matched to a register.
type SpeechParams struct {
	Pitch  float64
	Rate   float64
	Volume float64
	Lang   string
}

// Speech returns the synthesis settings for l. High voices get a raised
// pitch and a slightly faster rate; Low and Unset share the lowered
// settings.
func (l Label) Speech() SpeechParams {
	p := SpeechParams{Pitch: 0.8, Rate: 0.9, Volume: 1.0, Lang: SpeechLanguage}
	if l == High {
		p.Pitch = 1.3
		p.Rate = 1.1
	}
	return p
}

// Utterance is a reply ready to hand to a speech synthesizer.
type Utterance struct {
	Text  string
	Label Label
	Words int
	SpeechParams
}

// Reply pairs text with the synthesis settings for label.
func Reply(text string, label Label) Utterance {
	return Utterance{
		Text:         text,
		Label:        label,
		Words:        WordCount(text),
		SpeechParams: label.Speech(),
	}
}

// WordCount counts the non-empty space-separated words of text. Only the
// ASCII space separates words, so "a\tb" is one word.
func WordCount(text string) int {
	n := 0
	for _, w := range strings.Split(text, " ") {
		if w != "" {
			n++
		}
	}
	return n
}
