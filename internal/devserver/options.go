package devserver

import "time"

const (
	DefaultChunkSize      = 4
	DefaultFramesPerGlyph = 6
	DefaultFramesPerSign  = 24
	DefaultMaxDistance    = 1
)

// DefaultVocabulary lists the words that have a whole-word sign. Everything
// else is fingerspelled.
var DefaultVocabulary = []string{
	"hello", "goodbye", "thank", "you", "please", "sorry", "yes", "no",
	"good", "morning", "night", "name", "friend", "help", "love", "water",
	"sign", "language", "learn", "understand",
}

type Options struct {
	Vocabulary     []string
	ChunkSize      int
	FramesPerGlyph int
	FramesPerSign  int
	// MaxDistance is the largest edit distance at which a word still maps to
	// a vocabulary sign. Words shorter than four letters must match exactly.
	MaxDistance int
	// BatchDelay is slept between consecutive batches of one answer.
	BatchDelay time.Duration
}

type Option func(*Options)

func WithVocabulary(words ...string) Option {
	return func(o *Options) { o.Vocabulary = words }
}

func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

func WithMaxDistance(distance int) Option {
	return func(o *Options) { o.MaxDistance = max(distance, 0) }
}

func WithBatchDelay(delay time.Duration) Option {
	return func(o *Options) { o.BatchDelay = max(delay, 0) }
}

func defaultOptions() Options {
	return Options{
		Vocabulary:     DefaultVocabulary,
		ChunkSize:      DefaultChunkSize,
		FramesPerGlyph: DefaultFramesPerGlyph,
		FramesPerSign:  DefaultFramesPerSign,
		MaxDistance:    DefaultMaxDistance,
	}
}
