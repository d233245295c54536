package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestMembershipGrantExtendsInsideTransaction(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationMembershipService(pool, "2030-03-01")

	userID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestMembers(t, ctx, pool, userID) })

	first, err := service.Grant(ctx, userID, "monthly", 0)
	if err != nil {
		t.Fatalf("first Grant: %v", err)
	}
	if got := first.StartDate.Format(time.DateOnly); got != "2030-03-01" {
		t.Fatalf("expected start today, got %s", got)
	}
	if got := first.EndDate.Format(time.DateOnly); got != "2030-03-31" {
		t.Fatalf("expected end 2030-03-31, got %s", got)
	}

	second, err := service.Grant(ctx, userID, "custom", 10)
	if err != nil {
		t.Fatalf("second Grant: %v", err)
	}
	if got := second.StartDate.Format(time.DateOnly); got != "2030-03-31" {
		t.Fatalf("expected extension to start at prior end, got %s", got)
	}
	if got := second.EndDate.Format(time.DateOnly); got != "2030-04-10" {
		t.Fatalf("expected end 2030-04-10, got %s", got)
	}

	mine, err := service.Mine(ctx, userID)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	statuses := map[int64]string{}
	for _, membership := range mine.Memberships {
		statuses[membership.ID] = membership.Status
	}
	if statuses[first.ID] != models.MembershipExtended || statuses[second.ID] != models.MembershipActive {
		t.Fatalf("unexpected statuses %v", statuses)
	}

	cancelled, err := service.Revoke(ctx, userID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected one cancelled membership, got %d", cancelled)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationMembershipService(pool *pgxpool.Pool, today string) *MembershipService {
	service := NewMembershipService(
		repository.NewProfileRepository(pool),
		repository.NewMembershipRepository(pool),
		NewPgMembershipTx(pool),
	)
	fixed, _ := time.Parse(time.DateOnly, today)
	service.now = func() time.Time { return fixed.Add(9 * time.Hour) }
	return service
}

func createTestMember(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	suffix := time.Now().UnixNano()
	user := &models.User{Email: fmt.Sprintf("membership-test-%d@example.com", suffix)}
	if _, err := NewAccountStore(pool).CreateAccount(ctx, user, repository.CreateProfileInput{
		Name:            "Test Climber",
		DisplayNickname: fmt.Sprintf("climber%d", suffix%1_000_000_000),
		Role:            models.RoleUser,
	}, nil); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return user.ID
}

func cleanupTestMembers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...uuid.UUID) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
