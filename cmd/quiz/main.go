package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"transquiz/internal/config"
	"transquiz/internal/models"
	"transquiz/internal/service"
	"transquiz/internal/utils"
)

type options struct {
	promptsPath    string
	referencesPath string
	count          int
	seed           uint64
}

func main() {
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.promptsPath, "prompts", "", "File with one sentence per line (required)")
	flag.StringVar(&opts.referencesPath, "references", "", "File with the matching translation on each line (required)")
	flag.IntVar(&opts.count, "count", cfg.QuizSize, "Number of sentences to quiz")
	flag.Uint64Var(&opts.seed, "seed", 0, "Random seed for a repeatable quiz (0 picks a random order)")
	flag.Parse()

	if opts.promptsPath == "" || opts.referencesPath == "" {
		fmt.Println("Error: -prompts and -references are required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("Error: %s\n", verr.Message)
			os.Exit(1)
		}
		log.Fatalf("Quiz failed: %v", err)
	}
}

func run(opts options, in io.Reader, out io.Writer) error {
	if opts.count < 1 {
		return utils.NewValidationError("count", "-count must be at least 1, got %d", opts.count)
	}

	prompts, err := readLines(opts.promptsPath)
	if err != nil {
		return err
	}
	references, err := readLines(opts.referencesPath)
	if err != nil {
		return err
	}

	var src service.IntSource
	if opts.seed != 0 {
		src = rand.New(rand.NewPCG(opts.seed, opts.seed))
	}
	session := service.NewQuizSession(service.NewSampler(src), opts.count)

	if err := session.Start(prompts, references); err != nil {
		return err
	}

	quiz := session.QuizSet()
	answers := make([]string, 0, len(quiz))
	scanner := bufio.NewScanner(in)
	for i, pair := range quiz {
		fmt.Fprintf(out, "\n%d/%d  %s\n> ", i+1, len(quiz), pair.Prompt)
		if !scanner.Scan() {
			// Out of input: the rest count as blank
			fmt.Fprintln(out)
			break
		}
		answers = append(answers, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read answers: %w", err)
	}

	summary, err := session.Submit(answers)
	if err != nil {
		return err
	}

	printSummary(out, summary)
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return utils.SplitLines(string(data)), nil
}

func printSummary(out io.Writer, summary *models.SessionSummary) {
	fmt.Fprintln(out, "\nResults")
	fmt.Fprintln(out, strings.Repeat("=", 40))
	for i, item := range summary.Results {
		fmt.Fprintf(out, "%d. %s\n", i+1, item.Answer.Pair.Prompt)
		fmt.Fprintf(out, "   match:     %d%%\n", item.Score.SimilarityPercent)
		fmt.Fprintf(out, "   you:       %s\n", highlight(item.Score.UserTokens))
		fmt.Fprintf(out, "   reference: %s\n", item.Answer.Pair.Reference)
	}
	fmt.Fprintln(out, strings.Repeat("=", 40))
	fmt.Fprintf(out, "Total score: %d%%\n", summary.OverallPercent)
}

// highlight wraps words missing from the reference in brackets
func highlight(tokens []models.TokenMatch) string {
	if len(tokens) == 0 {
		return "(no answer)"
	}
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		if tok.Match {
			words[i] = tok.Word
		} else {
			words[i] = "[" + tok.Word + "]"
		}
	}
	return strings.Join(words, " ")
}
