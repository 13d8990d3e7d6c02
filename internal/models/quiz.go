package models

// SentencePair is one prompt with its reference translation
type SentencePair struct {
	Index     int // position in the input pool
	Prompt    string
	Reference string
}

// QuizSet is the ordered subset of the pool presented in one session
type QuizSet []SentencePair

// AnswerRecord is a submitted answer for one quiz item
type AnswerRecord struct {
	Pair       SentencePair
	UserAnswer string
}

// TokenMatch classifies one normalized word of a user answer
type TokenMatch struct {
	Word  string
	Match bool
}

// ScoreResult is the outcome of scoring one answer against its reference
type ScoreResult struct {
	SimilarityPercent int
	MatchedWordCount  int
	UserTokens        []TokenMatch
}

// ResultItem pairs an answer with its score for display
type ResultItem struct {
	Answer AnswerRecord
	Score  ScoreResult
}

// SessionSummary holds the scored results of a completed quiz
type SessionSummary struct {
	Results        []ResultItem
	OverallPercent int
}

// SessionState is the lifecycle stage of a quiz session
type SessionState int

const (
	StateIdle SessionState = iota
	StateInProgress
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
