package handlers

import "transquiz/internal/models"

type InputViewData struct {
	Title      string
	CSRFToken  string
	QuizSize   int
	Prompts    string
	References string
	Error      string
}

type QuestionView struct {
	Number int
	Field  string
	Prompt string
}

type TestViewData struct {
	Title     string
	CSRFToken string
	Questions []QuestionView
}

type ResultView struct {
	Number int
	Item   models.ResultItem
}

type ResultsViewData struct {
	Title          string
	CSRFToken      string
	OverallPercent int
	Results        []ResultView
}
