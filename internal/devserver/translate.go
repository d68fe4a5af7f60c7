package devserver

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/koscakluka/signspell/core/animation"
)

// Fingerspelling is the payload of a word spelled letter by letter.
type Fingerspelling struct {
	Glyphs []string `json:"glyphs"`
	Frames int      `json:"frames"`
}

// Sign is the payload of a word with its own sign.
type Sign struct {
	Sign   string `json:"sign"`
	Frames int    `json:"frames"`
}

type translator struct {
	vocabulary     map[string]struct{}
	words          []string
	framesPerGlyph int
	framesPerSign  int
	maxDistance    int
}

func newTranslator(options Options) *translator {
	t := &translator{
		vocabulary:     make(map[string]struct{}, len(options.Vocabulary)),
		framesPerGlyph: options.FramesPerGlyph,
		framesPerSign:  options.FramesPerSign,
		maxDistance:    options.MaxDistance,
	}
	for _, word := range options.Vocabulary {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, ok := t.vocabulary[word]; !ok {
			t.vocabulary[word] = struct{}{}
			t.words = append(t.words, word)
		}
	}
	return t
}

// Translate turns text into animation units, one per word, in input order.
func (t *translator) Translate(text string) ([]animation.Unit, error) {
	var units []animation.Unit
	for _, word := range splitWords(text) {
		payload, err := t.animate(strings.ToLower(word))
		if err != nil {
			return nil, err
		}
		units = append(units, animation.Unit{Label: word, Animation: payload})
	}
	return units, nil
}

func (t *translator) animate(word string) (json.RawMessage, error) {
	if sign, ok := t.closestSign(word); ok {
		return json.Marshal(Sign{Sign: sign, Frames: t.framesPerSign})
	}

	glyphs := make([]string, 0, len(word))
	for _, r := range word {
		glyphs = append(glyphs, string(r))
	}
	return json.Marshal(Fingerspelling{Glyphs: glyphs, Frames: len(glyphs) * t.framesPerGlyph})
}

func (t *translator) closestSign(word string) (string, bool) {
	if _, ok := t.vocabulary[word]; ok {
		return word, true
	}
	if len([]rune(word)) < 4 || t.maxDistance == 0 {
		return "", false
	}

	best, bestDistance := "", t.maxDistance+1
	for _, candidate := range t.words {
		if distance := levenshtein.ComputeDistance(word, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best, best != ""
}

func splitWords(text string) []string {
	var words []string
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}

func chunk(units []animation.Unit, size int) [][]animation.Unit {
	var batches [][]animation.Unit
	for len(units) > size {
		batches = append(batches, units[:size:size])
		units = units[size:]
	}
	if len(units) > 0 {
		batches = append(batches, units)
	}
	return batches
}
