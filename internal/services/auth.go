package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftline/marketplace/internal/database"
	"github.com/craftline/marketplace/internal/lifecycle"
	"github.com/craftline/marketplace/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountIsAlreadyRegistered = errors.New("account is already registered")
	ErrAccountIsNotExist          = errors.New("account does not exist")
	ErrPasswordIsIncorrect        = errors.New("password is incorrect")
	ErrRoleIsInvalid              = errors.New("role is invalid")
)

// AuthService registers accounts and verifies credentials. The role stored
// at registration is the one the lifecycle permission tables see later.
type AuthService struct {
	storage authStorage
}

type authStorage interface {
	CreateAccount(ctx context.Context, account database.AccountDB) error
	FindAccount(ctx context.Context, login string) (*database.AccountDB, error)
}

func NewAuthService(storage authStorage) *AuthService {
	return &AuthService{storage: storage}
}

// Register creates an account with a bcrypt password hash. The default role
// is customer; artisan and admin must be requested explicitly.
func (auth *AuthService) Register(ctx context.Context, account models.UnknownAccount) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	role := models.RoleCustomer
	if account.Role != nil {
		role = models.Role(*account.Role)
		if !lifecycle.KnownRole(role) {
			return ErrRoleIsInvalid
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*account.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = auth.storage.CreateAccount(ctx, database.AccountDB{
		Account: models.Account{
			Login: *account.Login,
			Hash:  string(hashedPassword),
			Role:  role,
		},
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateAccount) {
			return ErrAccountIsAlreadyRegistered
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// Login verifies the password against the stored hash.
func (auth *AuthService) Login(ctx context.Context, account models.UnknownAccount) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	found, err := auth.storage.FindAccount(ctx, *account.Login)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if found == nil {
		return ErrAccountIsNotExist
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.Hash), []byte(*account.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordIsIncorrect
		}
		return fmt.Errorf("failed to compare passwords: %w", err)
	}

	return nil
}

// GetAccount resolves a login to the stored account, including its role.
func (auth *AuthService) GetAccount(ctx context.Context, login string) (*models.Account, error) {
	account, err := auth.storage.FindAccount(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if account == nil {
		return nil, ErrAccountIsNotExist
	}

	return &account.Account, nil
}

func validateAccount(account models.UnknownAccount) error {
	if account.Login == nil || *account.Login == "" {
		return errors.New("login must not be empty")
	}
	if account.Password == nil || *account.Password == "" {
		return errors.New("password must not be empty")
	}
	return nil
}
