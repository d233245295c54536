package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/yuin/goldmark"
)

const (
	recentRecordLimit      = 5
	defaultOpenAIModel     = "gpt-4o-mini"
	openAICompletionsURL   = "https://api.openai.com/v1/chat/completions"
	recommenderHTTPTimeout = 30 * time.Second
)

// ErrModelKeyMissing means the coaching model has no API key configured.
var ErrModelKeyMissing = errors.New("OPENAI_API_KEY not set")

// Recommender produces coaching advice from recent climbing records.
type Recommender interface {
	Recommend(ctx context.Context, records []RecordDigest) (string, error)
}

// RecordDigest is the part of a record sent to the coaching model.
type RecordDigest struct {
	Date       string `json:"date"`
	Location   string `json:"location"`
	ClimbType  string `json:"climb_type"`
	Difficulty string `json:"difficulty"`
	Success    bool   `json:"success"`
}

func digest(records []models.Record) []RecordDigest {
	out := make([]RecordDigest, len(records))
	for i, record := range records {
		out[i] = RecordDigest{
			Date:       record.DateKey(),
			Location:   record.Location,
			ClimbType:  record.ClimbType,
			Difficulty: record.Difficulty,
			Success:    record.Success,
		}
	}
	return out
}

// CoachingPrompt is the instruction sent with the records.
func CoachingPrompt(records []RecordDigest) string {
	encoded, _ := json.MarshalIndent(records, "", "  ")
	return fmt.Sprintf(`너는 클라이밍 코치 AI야.
최근 운동 기록을 보고 다음 운동을 추천해줘.

%s

조건:
- 한국어
- 짧게
- 동기부여 한 문장 포함
`, encoded)
}

type recentRecords interface {
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Record, error)
}

type CoachService struct {
	records     recentRecords
	recommender Recommender
	md          goldmark.Markdown
}

func NewCoachService(records recentRecords, recommender Recommender) *CoachService {
	return &CoachService{records: records, recommender: recommender, md: goldmark.New()}
}

type Recommendation struct {
	Recommendation     string         `json:"recommendation"`
	RecommendationHTML string         `json:"recommendation_html"`
	BasedOn            []RecordDigest `json:"based_on"`
}

// Recommend asks the model once about the user's five latest records.
func (s *CoachService) Recommend(ctx context.Context, userID uuid.UUID) (*Recommendation, error) {
	if s.recommender == nil {
		return nil, ErrAIUnavailable
	}

	records, err := s.records.Recent(ctx, userID, recentRecordLimit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, invalid("records", "add a climbing record before asking for a recommendation")
	}

	recent := digest(records)
	text, err := s.recommender.Recommend(ctx, recent)
	if err != nil {
		slog.Error("ai_recommendation_failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	var html bytes.Buffer
	if err := s.md.Convert([]byte(text), &html); err != nil {
		return nil, fmt.Errorf("render recommendation: %w", err)
	}
	return &Recommendation{
		Recommendation:     text,
		RecommendationHTML: html.String(),
		BasedOn:            recent,
	}, nil
}

// FunctionRecommender calls a deployed ai-recommend function.
type FunctionRecommender struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewFunctionRecommender(url, token string) *FunctionRecommender {
	return &FunctionRecommender{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: recommenderHTTPTimeout},
	}
}

func (r *FunctionRecommender) Recommend(ctx context.Context, records []RecordDigest) (string, error) {
	payload, err := json.Marshal(map[string]any{"recent_records": records})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build function request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call function: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Recommendation string `json:"recommendation"`
		Error          string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode function response: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("function status %d: %s", resp.StatusCode, body.Error)
	}
	if strings.TrimSpace(body.Recommendation) == "" {
		return "", errors.New("function returned an empty recommendation")
	}
	return body.Recommendation, nil
}

// OpenAIRecommender talks to the chat completions API directly.
type OpenAIRecommender struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewOpenAIRecommender(apiKey, model string) *OpenAIRecommender {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIRecommender{
		apiKey:     apiKey,
		model:      model,
		endpoint:   openAICompletionsURL,
		httpClient: &http.Client{Timeout: recommenderHTTPTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r *OpenAIRecommender) Recommend(ctx context.Context, records []RecordDigest) (string, error) {
	if r.apiKey == "" {
		return "", ErrModelKeyMissing
	}

	payload, err := json.Marshal(map[string]any{
		"model":    r.model,
		"messages": []chatMessage{{Role: "user", Content: CoachingPrompt(records)}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("completions status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
