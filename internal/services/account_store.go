package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

// AccountStore writes a user, its profile, and an optional linked identity in one transaction.
type AccountStore struct {
	db *pgxpool.Pool
}

func NewAccountStore(db *pgxpool.Pool) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) CreateAccount(
	ctx context.Context,
	user *models.User,
	profile repository.CreateProfileInput,
	identity *models.ExternalIdentity,
) (*models.Profile, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txProfileRepo := repository.NewProfileRepository(tx)

	if err := txUserRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	profile.ID = user.ID
	profile.Email = user.Email
	created, err := txProfileRepo.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	if identity != nil {
		if err := txUserRepo.LinkIdentity(ctx, user.ID, identity.Provider, identity.Subject); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
