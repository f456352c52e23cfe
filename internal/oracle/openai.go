package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/scoring"
)

// completer abstracts one chat completion round-trip so decode and re-prompt
// logic can be tested without the network.
type completer interface {
	complete(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Client is the OpenAI-backed oracle. Structured calls run in JSON mode, are
// validated after decoding, and get exactly one corrective re-prompt carrying
// the validation error before the call fails with ErrInvalidPayload.
type Client struct {
	completer completer
	logger    *slog.Logger
}

func NewClient(apiKey, model string, policy RetryPolicy, logger *slog.Logger) *Client {
	return newClientWithCompleter(&apiCompleter{
		api:     openai.NewClient(apiKey),
		model:   model,
		retrier: newRetrier(policy, logger),
	}, logger)
}

func newClientWithCompleter(c completer, logger *slog.Logger) *Client {
	return &Client{completer: c, logger: logger}
}

type apiCompleter struct {
	api     *openai.Client
	model   string
	retrier retrier
}

func (a *apiCompleter) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := a.retrier.do(ctx, "chat completion", func(ctx context.Context) error {
		response, err := a.api.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(response.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		content = strings.TrimSpace(response.Choices[0].Message.Content)
		if content == "" {
			return errors.New("completion returned empty text")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// GenerateCase asks the backend for a full case file and validates the result.
func (c *Client) GenerateCase(ctx context.Context, lang mystery.Language) (mystery.Case, error) {
	prompt := caseGenerationPrompt(lang)

	decode := func(raw string) (mystery.Case, error) {
		var generated mystery.Case
		if err := json.Unmarshal(extractJSON(raw), &generated); err != nil {
			return mystery.Case{}, errors.Wrap(err, "decoding case file")
		}
		if err := generated.Validate(); err != nil {
			return mystery.Case{}, err
		}
		return generated, nil
	}

	raw, err := c.completer.complete(ctx, prompt, true)
	if err != nil {
		return mystery.Case{}, errors.Wrap(err, "generating case")
	}
	generated, decodeErr := decode(raw)
	if decodeErr == nil {
		return generated, nil
	}

	c.logger.LogAttrs(ctx, slog.LevelWarn, "generated case rejected, re-prompting",
		errors.SlogError(decodeErr))
	raw, err = c.completer.complete(ctx, correctionPrompt(prompt, decodeErr.Error()), true)
	if err != nil {
		return mystery.Case{}, errors.Wrap(err, "regenerating case")
	}
	generated, decodeErr = decode(raw)
	if decodeErr != nil {
		return mystery.Case{}, errors.Wrap(ErrInvalidPayload, "case file", errors.SlogError(decodeErr))
	}
	return generated, nil
}

type contradictionResult struct {
	Contradiction bool   `json:"contradiction"`
	Reason        string `json:"reason"`
	FixedAnswer   string `json:"fixed_answer"`
}

// Answer drafts a game-master reply and then self-checks it for contradictions
// against the hidden case, substituting the repaired text when one is found.
// A failed self-check keeps the draft rather than failing the whole question.
func (c *Client) Answer(ctx context.Context, mc mystery.Case, history []QA, question, target string,
	lang mystery.Language) (string, error) {
	draft, err := c.completer.complete(ctx, answerPrompt(mc, history, question, target, lang), false)
	if err != nil {
		return "", errors.Wrap(err, "answering question")
	}

	raw, err := c.completer.complete(ctx, contradictionPrompt(mc, question, draft, lang), true)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "contradiction check failed, keeping draft",
			errors.SlogError(err))
		return draft, nil
	}
	var check contradictionResult
	if err := json.Unmarshal(extractJSON(raw), &check); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "contradiction check undecodable, keeping draft",
			errors.SlogError(err))
		return draft, nil
	}
	if check.Contradiction && strings.TrimSpace(check.FixedAnswer) != "" {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "answer repaired after contradiction check",
			slog.String("reason", check.Reason))
		return strings.TrimSpace(check.FixedAnswer), nil
	}
	return draft, nil
}

// CheckGuess asks the backend to judge the guess against the hidden solution.
func (c *Client) CheckGuess(ctx context.Context, mc mystery.Case, history []QA, guess mystery.Guess,
	lang mystery.Language) (*scoring.Review, error) {
	prompt := scoringPrompt(mc, guess, lang)

	decode := func(raw string) (*scoring.Review, error) {
		var review scoring.Review
		if err := json.Unmarshal(extractJSON(raw), &review); err != nil {
			return nil, errors.Wrap(err, "decoding guess review")
		}
		if review.Feedback == "" || review.SolutionSummary == "" {
			return nil, errors.New("guess review is missing feedback or solution_summary")
		}
		return &review, nil
	}

	raw, err := c.completer.complete(ctx, prompt, true)
	if err != nil {
		return nil, errors.Wrap(err, "checking guess")
	}
	review, decodeErr := decode(raw)
	if decodeErr == nil {
		return review, nil
	}

	c.logger.LogAttrs(ctx, slog.LevelWarn, "guess review rejected, re-prompting",
		errors.SlogError(decodeErr))
	raw, err = c.completer.complete(ctx, correctionPrompt(prompt, decodeErr.Error()), true)
	if err != nil {
		return nil, errors.Wrap(err, "rechecking guess")
	}
	review, decodeErr = decode(raw)
	if decodeErr != nil {
		return nil, errors.Wrap(ErrInvalidPayload, "guess review", errors.SlogError(decodeErr))
	}
	return review, nil
}

type followUpResult struct {
	Questions []string `json:"questions"`
}

// NextFollowUps asks the backend for follow-up question suggestions.
func (c *Client) NextFollowUps(ctx context.Context, mc mystery.Case, answer string, historyCount int,
	lang mystery.Language) ([]string, error) {
	raw, err := c.completer.complete(ctx, followUpPrompt(mc, answer, historyCount, lang), true)
	if err != nil {
		return nil, errors.Wrap(err, "suggesting follow-ups")
	}
	var suggestions followUpResult
	if err := json.Unmarshal(extractJSON(raw), &suggestions); err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, "follow-up suggestions", errors.SlogError(err))
	}
	return suggestions.Questions, nil
}

var (
	fenceRe = regexp.MustCompile("^```[a-zA-Z]*")
	braceRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractJSON tolerates code fences and prose around a JSON object, which some
// models emit even in JSON mode.
func extractJSON(raw string) []byte {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = fenceRe.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))
	}
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned)
	}
	if match := braceRe.FindString(cleaned); match != "" {
		return []byte(match)
	}
	return []byte(cleaned)
}
