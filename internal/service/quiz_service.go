package service

import (
	"errors"
	"fmt"
	"strings"

	"transquiz/internal/models"
	"transquiz/internal/utils"
)

// DefaultQuizSize is the number of items in a quiz unless configured otherwise
const DefaultQuizSize = 10

var ErrInvalidTransition = errors.New("invalid quiz state transition")

// QuizSession drives one quiz from start through scoring to reset.
// It is owned by a single caller and is not safe for concurrent use.
type QuizSession struct {
	sampler  *Sampler
	quizSize int

	state   models.SessionState
	quiz    models.QuizSet
	summary *models.SessionSummary
}

// NewQuizSession creates an idle session
func NewQuizSession(sampler *Sampler, quizSize int) *QuizSession {
	if quizSize <= 0 {
		quizSize = DefaultQuizSize
	}
	return &QuizSession{
		sampler:  sampler,
		quizSize: quizSize,
		state:    models.StateIdle,
	}
}

// State returns the current lifecycle stage
func (s *QuizSession) State() models.SessionState {
	return s.state
}

// QuizSet returns a copy of the items of the running or completed quiz
func (s *QuizSession) QuizSet() models.QuizSet {
	if s.quiz == nil {
		return nil
	}
	quiz := make(models.QuizSet, len(s.quiz))
	copy(quiz, s.quiz)
	return quiz
}

// Summary returns the scored results once the quiz is completed
func (s *QuizSession) Summary() (*models.SessionSummary, bool) {
	if s.state != models.StateCompleted {
		return nil, false
	}
	return s.summary, true
}

// Start samples a new quiz from the pool. On failure the session stays idle
// and nothing is changed.
func (s *QuizSession) Start(prompts, references []string) error {
	if s.state != models.StateIdle {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, s.state)
	}

	quiz, err := s.sampler.Sample(prompts, references, s.quizSize)
	if err != nil {
		return err
	}

	s.quiz = quiz
	s.state = models.StateInProgress
	return nil
}

// Submit scores the answers, one per quiz item in order. Missing trailing
// answers are treated as blank.
func (s *QuizSession) Submit(answers []string) (*models.SessionSummary, error) {
	if s.state != models.StateInProgress {
		return nil, fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, s.state)
	}
	if len(answers) > len(s.quiz) {
		return nil, utils.NewValidationError("answers",
			"got %d answers for %d questions", len(answers), len(s.quiz))
	}

	records := make([]models.AnswerRecord, len(s.quiz))
	for i, pair := range s.quiz {
		answer := ""
		if i < len(answers) {
			answer = strings.TrimSpace(answers[i])
		}
		records[i] = models.AnswerRecord{Pair: pair, UserAnswer: answer}
	}

	summary := Summarize(records)
	s.summary = &summary
	s.state = models.StateCompleted
	return s.summary, nil
}

// Reset discards the completed quiz and returns to idle
func (s *QuizSession) Reset() error {
	if s.state != models.StateCompleted {
		return fmt.Errorf("%w: cannot reset from %s", ErrInvalidTransition, s.state)
	}
	s.quiz = nil
	s.summary = nil
	s.state = models.StateIdle
	return nil
}

// Summarize scores every record and averages the percentages
func Summarize(records []models.AnswerRecord) models.SessionSummary {
	results := make([]models.ResultItem, len(records))
	total := 0
	for i, record := range records {
		score := Score(record.UserAnswer, record.Pair.Reference)
		results[i] = models.ResultItem{Answer: record, Score: score}
		total += score.SimilarityPercent
	}

	overall := 0
	if len(results) > 0 {
		overall = roundedMean(total, len(results))
	}

	return models.SessionSummary{
		Results:        results,
		OverallPercent: overall,
	}
}

// roundedMean returns round(sum/n) with halves rounded up
func roundedMean(sum, n int) int {
	return (2*sum + n) / (2 * n)
}
