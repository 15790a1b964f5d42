package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"virusbreach/internal/config"
	"virusbreach/internal/model"
)

// TeamOutcome is one team's round result handed to the winner picker.
type TeamOutcome struct {
	TeamID      string `json:"teamId"`
	TeamName    string `json:"teamName"`
	Answer      string `json:"answer"`
	OutcomeText string `json:"outcomeText"`
	Rating      string `json:"rating"`
}

// WinnerResult is the winner picker's decision. WinnerTeamIDs is always a
// subset of the eligible team ids.
type WinnerResult struct {
	WinnerTeamIDs []string `json:"winnerTeamIds"`
	Reasoning     string   `json:"reasoning"`
}

// TauntTeam is the per-team input for taunt generation.
type TauntTeam struct {
	TeamID    string `json:"teamId"`
	VirusName string `json:"virusName"`
	Answer    string `json:"answer"`
}

// SummaryTeam is the per-team input for end-of-game summary generation.
type SummaryTeam struct {
	TeamID    string `json:"teamId"`
	VirusName string `json:"virusName"`
	Points    int    `json:"points"`
}

// TeamSummary is one team's end-of-game writeup.
type TeamSummary struct {
	Summary string `json:"summary"`
	Rating  string `json:"rating"`
}

// Generator produces all narrative game content. Implementations absorb every
// failure internally: each call retries once and then falls back to
// deterministic content, so gameplay proceeds even with the generation API
// completely unreachable.
type Generator interface {
	GenerateScenario(ctx context.Context, difficulty model.Difficulty, previousTopics []string) *model.Scenario
	GenerateOutcome(ctx context.Context, scenarioText, teamName, answer string) model.Outcome
	PickWinners(ctx context.Context, scenarioText string, teams []TeamOutcome) WinnerResult
	GenerateTaunts(ctx context.Context, teams []TauntTeam, winnerIDs []string, roundNumber int) map[string]string
	GenerateSummary(ctx context.Context, teams []SummaryTeam, history []*model.Round) map[string]TeamSummary
}

// LLMGenerator talks to an OpenAI-compatible chat-completions API. Without an
// API key it serves fallback content directly.
type LLMGenerator struct {
	cfg    *config.GeneratorConfig
	client *http.Client
}

func NewLLMGenerator(cfg *config.GeneratorConfig) *LLMGenerator {
	return &LLMGenerator{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (g *LLMGenerator) GenerateScenario(ctx context.Context, difficulty model.Difficulty, previousTopics []string) *model.Scenario {
	topic := PickTopic(previousTopics)
	scenario, err := retryOnce(func() (*model.Scenario, error) {
		system, user := buildScenarioPrompt(difficulty, topic, previousTopics)
		raw, err := g.callChat(ctx, system, user, g.cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		var parsed struct {
			Text  string `json:"text"`
			Topic string `json:"topic"`
		}
		if err := unmarshalModelJSON(raw, &parsed); err != nil {
			return nil, err
		}
		if parsed.Text == "" {
			return nil, fmt.Errorf("scenario text missing")
		}
		if parsed.Topic == "" {
			parsed.Topic = topic
		}
		return &model.Scenario{Text: parsed.Text, Difficulty: difficulty, Topic: parsed.Topic}, nil
	})
	if err != nil {
		return fallbackScenario(difficulty, topic)
	}
	return scenario
}

func (g *LLMGenerator) GenerateOutcome(ctx context.Context, scenarioText, teamName, answer string) model.Outcome {
	outcome, err := retryOnce(func() (model.Outcome, error) {
		system, user := buildOutcomePrompt(scenarioText, teamName, answer)
		raw, err := g.callChat(ctx, system, user, g.cfg.MaxTokens)
		if err != nil {
			return model.Outcome{}, err
		}
		var parsed model.Outcome
		if err := unmarshalModelJSON(raw, &parsed); err != nil {
			return model.Outcome{}, err
		}
		if parsed.Text == "" {
			return model.Outcome{}, fmt.Errorf("outcome text missing")
		}
		switch parsed.Rating {
		case "good", "partial", "bad":
		default:
			parsed.Rating = "partial"
		}
		return parsed, nil
	})
	if err != nil {
		return fallbackOutcome(teamName)
	}
	return outcome
}

func (g *LLMGenerator) PickWinners(ctx context.Context, scenarioText string, teams []TeamOutcome) WinnerResult {
	result, err := retryOnce(func() (WinnerResult, error) {
		system, user := buildPickWinnerPrompt(scenarioText, teams)
		raw, err := g.callChat(ctx, system, user, g.cfg.MaxTokens)
		if err != nil {
			return WinnerResult{}, err
		}
		var parsed WinnerResult
		if err := unmarshalModelJSON(raw, &parsed); err != nil {
			return WinnerResult{}, err
		}
		if parsed.Reasoning == "" {
			parsed.Reasoning = "The AI has spoken."
		}
		return parsed, nil
	})
	if err != nil {
		result = fallbackWinners()
	}
	// Discard any ids the generator hallucinated; winners must be a subset of
	// the eligible teams.
	result.WinnerTeamIDs = filterWinnerIDs(result.WinnerTeamIDs, teams)
	return result
}

func (g *LLMGenerator) GenerateTaunts(ctx context.Context, teams []TauntTeam, winnerIDs []string, roundNumber int) map[string]string {
	taunts, err := retryOnce(func() (map[string]string, error) {
		system, user := buildTauntPrompt(teams, winnerIDs, roundNumber)
		raw, err := g.callChat(ctx, system, user, g.cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		var parsed map[string]string
		if err := unmarshalModelJSON(raw, &parsed); err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("empty taunt response")
		}
		return parsed, nil
	})
	if err != nil {
		return fallbackTaunts(teams, winnerIDs)
	}
	return taunts
}

func (g *LLMGenerator) GenerateSummary(ctx context.Context, teams []SummaryTeam, history []*model.Round) map[string]TeamSummary {
	summaries, err := retryOnce(func() (map[string]TeamSummary, error) {
		system, user := buildSummaryPrompt(teams, history)
		raw, err := g.callChat(ctx, system, user, 1000)
		if err != nil {
			return nil, err
		}
		var parsed map[string]TeamSummary
		if err := unmarshalModelJSON(raw, &parsed); err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("empty summary response")
		}
		return parsed, nil
	})
	if err != nil {
		return fallbackSummaries(teams)
	}
	return backfillSummaries(summaries, teams)
}

// callChat posts one system+user exchange and returns the raw completion text.
func (g *LLMGenerator) callChat(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !g.cfg.IsEnabled() {
		return "", model.ErrGeneratorUnavailable
	}

	reqBody := map[string]interface{}{
		"model": g.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens":  maxTokens,
		"temperature": g.cfg.Temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ChatEndpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("generation API status %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

// retryOnce runs fn, retrying a single time on failure. An unconfigured
// generation API is not retried; fallback content is served directly.
func retryOnce[T any](fn func() (T, error)) (T, error) {
	out, err := fn()
	if err == nil || errors.Is(err, model.ErrGeneratorUnavailable) {
		return out, err
	}
	log.Printf("generator call failed, retrying once: %v", err)
	out, err = fn()
	if err != nil {
		log.Printf("generator retry failed, using fallback: %v", err)
	}
	return out, err
}

// filterWinnerIDs intersects the returned winner ids with the eligible set,
// preserving order and dropping duplicates.
func filterWinnerIDs(ids []string, teams []TeamOutcome) []string {
	valid := make(map[string]bool, len(teams))
	for _, t := range teams {
		valid[t.TeamID] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if valid[id] {
			out = append(out, id)
			delete(valid, id)
		}
	}
	return out
}

// backfillSummaries guarantees an entry per team: teams missing from the
// generator's response take surplus entries positionally, then the template.
func backfillSummaries(got map[string]TeamSummary, teams []SummaryTeam) map[string]TeamSummary {
	known := make(map[string]bool, len(teams))
	for _, t := range teams {
		known[t.TeamID] = true
	}
	var surplus []TeamSummary
	for id, s := range got {
		if !known[id] {
			surplus = append(surplus, s)
			delete(got, id)
		}
	}
	for _, t := range teams {
		if _, ok := got[t.TeamID]; ok {
			continue
		}
		if len(surplus) > 0 {
			got[t.TeamID] = surplus[0]
			surplus = surplus[1:]
			continue
		}
		got[t.TeamID] = fallbackSummary(t)
	}
	return got
}
