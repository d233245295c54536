package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/calendar"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

type recordStore interface {
	Create(ctx context.Context, userID uuid.UUID, input repository.RecordInput) (*models.Record, error)
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Record, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Record, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Record, error)
	Update(ctx context.Context, id int64, input repository.RecordInput) (*models.Record, error)
	Delete(ctx context.Context, id int64) error
}

type RecordService struct {
	records recordStore
	now     func() time.Time
}

func NewRecordService(records recordStore) *RecordService {
	return &RecordService{records: records, now: time.Now}
}

type RecordRequest struct {
	Date       string `json:"date"`
	Location   string `json:"location"`
	ClimbType  string `json:"climb_type"`
	Difficulty string `json:"difficulty"`
	Success    bool   `json:"success"`
}

// gradeOf returns the numeric part of a V-grade, or 0 when it is not one.
func gradeOf(difficulty string) int {
	rest, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(difficulty)), "V")
	if !ok {
		return 0
	}
	grade, err := strconv.Atoi(rest)
	if err != nil || grade < 1 || grade > 10 {
		return 0
	}
	return grade
}

func (r RecordRequest) toInput() (repository.RecordInput, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
	if err != nil {
		return repository.RecordInput{}, invalid("date", "date must be YYYY-MM-DD")
	}
	location := strings.TrimSpace(r.Location)
	if location == "" {
		return repository.RecordInput{}, invalid("location", "location is required")
	}
	grade := gradeOf(r.Difficulty)
	if grade == 0 {
		return repository.RecordInput{}, invalid("difficulty", "difficulty must be between V1 and V10")
	}
	climbType := strings.TrimSpace(r.ClimbType)
	if climbType == "" {
		climbType = models.DefaultClimbType
	}

	return repository.RecordInput{
		Date:       date,
		Location:   location,
		ClimbType:  climbType,
		Difficulty: "V" + strconv.Itoa(grade),
		Success:    r.Success,
	}, nil
}

func (s *RecordService) Create(ctx context.Context, userID uuid.UUID, req RecordRequest) (*models.Record, error) {
	input, err := req.toInput()
	if err != nil {
		return nil, err
	}
	return s.records.Create(ctx, userID, input)
}

func (s *RecordService) List(ctx context.Context, userID uuid.UUID) ([]models.Record, error) {
	return s.records.ListByUser(ctx, userID)
}

// Get returns the record when it belongs to userID.
func (s *RecordService) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *RecordService) Update(ctx context.Context, userID uuid.UUID, id int64, req RecordRequest) (*models.Record, error) {
	input, err := req.toInput()
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.records.Update(ctx, id, input)
}

func (s *RecordService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *RecordService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Record, error) {
	return s.records.ListRecent(ctx, userID, limit)
}

func (s *RecordService) Calendar(ctx context.Context, userID uuid.UUID, monthKey string) (*calendar.MonthView, error) {
	month, err := calendar.ParseMonth(monthKey, s.now())
	if err != nil {
		return nil, invalid("month", err.Error())
	}
	from, to := calendar.Bounds(month)
	records, err := s.records.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	view := calendar.Month(month.Year(), month.Month(), records, s.now())
	return &view, nil
}

func (s *RecordService) Summary(ctx context.Context, userID uuid.UUID) (*models.RecordSummary, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := SummarizeRecords(records)
	return &summary, nil
}

// SummarizeRecords aggregates a user's sessions.
func SummarizeRecords(records []models.Record) models.RecordSummary {
	summary := models.RecordSummary{ByClimbType: make(map[string]int)}
	var last time.Time
	hardest := 0

	for _, record := range records {
		summary.TotalSessions++
		summary.ByClimbType[record.ClimbType]++
		if record.Date.After(last) {
			last = record.Date
		}
		if !record.Success {
			continue
		}
		summary.Successes++
		if grade := gradeOf(record.Difficulty); grade > hardest {
			hardest = grade
		}
	}

	if summary.TotalSessions > 0 {
		rate := float64(summary.Successes) / float64(summary.TotalSessions) * 100
		summary.SuccessRate = float64(int(rate*10+0.5)) / 10
		key := last.Format(time.DateOnly)
		summary.LastSessionDate = &key
	}
	if hardest > 0 {
		grade := "V" + strconv.Itoa(hardest)
		summary.HardestSent = &grade
	}
	return summary
}
