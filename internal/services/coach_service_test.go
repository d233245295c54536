package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type stubRecent struct {
	records []models.Record
	limit   int
}

func (s *stubRecent) Recent(_ context.Context, _ uuid.UUID, limit int) ([]models.Record, error) {
	s.limit = limit
	return s.records, nil
}

type stubRecommender struct {
	text  string
	err   error
	calls int
	got   []RecordDigest
}

func (r *stubRecommender) Recommend(_ context.Context, records []RecordDigest) (string, error) {
	r.calls++
	r.got = records
	return r.text, r.err
}

func TestCoachRecommendRendersMarkdown(t *testing.T) {
	recent := &stubRecent{records: []models.Record{
		{Date: day(t, "2024-05-03"), Location: "더클라임", ClimbType: "볼더링", Difficulty: "V4", Success: true},
	}}
	recommender := &stubRecommender{text: "**V5** 오버행 문제에 도전해보세요!"}
	service := NewCoachService(recent, recommender)

	result, err := service.Recommend(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if recent.limit != 5 {
		t.Fatalf("expected five recent records, got limit %d", recent.limit)
	}
	if len(recommender.got) != 1 || recommender.got[0].Date != "2024-05-03" {
		t.Fatalf("unexpected digest %+v", recommender.got)
	}
	if !strings.Contains(result.RecommendationHTML, "<strong>V5</strong>") {
		t.Fatalf("expected rendered html, got %q", result.RecommendationHTML)
	}
}

func TestCoachRecommendFailures(t *testing.T) {
	empty := NewCoachService(&stubRecent{}, &stubRecommender{text: "x"})
	if _, err := empty.Recommend(context.Background(), uuid.New()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without records, got %v", err)
	}

	recommender := &stubRecommender{err: errors.New("boom")}
	failing := NewCoachService(&stubRecent{records: []models.Record{{Difficulty: "V1"}}}, recommender)
	if _, err := failing.Recommend(context.Background(), uuid.New()); !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
	if recommender.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", recommender.calls)
	}
}

func TestFunctionRecommenderPostsRecentRecords(t *testing.T) {
	var received map[string][]RecordDigest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer anon" {
			t.Errorf("unexpected request %s auth=%q", r.Method, r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"recommendation": "슬로퍼 연습!"})
	}))
	defer server.Close()

	text, err := NewFunctionRecommender(server.URL, "anon").Recommend(context.Background(), []RecordDigest{{Difficulty: "V3"}})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if text != "슬로퍼 연습!" {
		t.Fatalf("unexpected text %q", text)
	}
	if len(received["recent_records"]) != 1 || received["recent_records"][0].Difficulty != "V3" {
		t.Fatalf("unexpected payload %+v", received)
	}
}

func TestFunctionRecommenderSurfacesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "OPENAI_API_KEY not set"})
	}))
	defer server.Close()

	_, err := NewFunctionRecommender(server.URL, "").Recommend(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY not set") {
		t.Fatalf("expected function error to surface, got %v", err)
	}
}

func TestOpenAIRecommender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-4o-mini" || len(body.Messages) != 1 || !strings.Contains(body.Messages[0].Content, "클라이밍 코치") {
			t.Errorf("unexpected completion request %+v", body)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"다음엔 V4!"}}]}`))
	}))
	defer server.Close()

	recommender := NewOpenAIRecommender("sk-test", "")
	recommender.endpoint = server.URL

	text, err := recommender.Recommend(context.Background(), []RecordDigest{{Difficulty: "V3"}})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if text != "다음엔 V4!" {
		t.Fatalf("unexpected text %q", text)
	}

	if _, err := NewOpenAIRecommender("", "").Recommend(context.Background(), nil); !errors.Is(err, ErrModelKeyMissing) {
		t.Fatalf("expected ErrModelKeyMissing, got %v", err)
	}
}
