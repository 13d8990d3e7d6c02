package service

import (
	"math/rand/v2"

	"transquiz/internal/models"
	"transquiz/internal/utils"
)

// IntSource supplies uniform random integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type IntSource interface {
	IntN(n int) int
}

// globalSource uses the auto-seeded top-level generator, which is safe for
// concurrent use
type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// Sampler selects quiz items from a pool of sentence pairs
type Sampler struct {
	src IntSource
}

// NewSampler creates a sampler. A nil source falls back to the global generator.
func NewSampler(src IntSource) *Sampler {
	if src == nil {
		src = globalSource{}
	}
	return &Sampler{src: src}
}

// Sample validates the pool and returns count pairs chosen without replacement
func (s *Sampler) Sample(prompts, references []string, count int) (models.QuizSet, error) {
	if count < 1 {
		return nil, utils.NewValidationError("count", "quiz size must be at least 1, got %d", count)
	}
	if len(prompts) != len(references) {
		return nil, utils.NewValidationError("references",
			"prompt and reference counts must match (%d prompts, %d references)", len(prompts), len(references))
	}
	if len(prompts) < count {
		return nil, utils.NewValidationError("prompts",
			"at least %d sentence pairs are required, got %d", count, len(prompts))
	}

	indices := s.permutation(len(prompts))

	quiz := make(models.QuizSet, count)
	for i, idx := range indices[:count] {
		quiz[i] = models.SentencePair{
			Index:     idx,
			Prompt:    prompts[idx],
			Reference: references[idx],
		}
	}
	return quiz, nil
}

// permutation shuffles [0, n) with Fisher-Yates
func (s *Sampler) permutation(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := s.src.IntN(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices
}
