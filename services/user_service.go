package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized is returned for any login failure so callers cannot tell which part was wrong.
var ErrUnauthorized = errors.New("invalid email or password")

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	repo repository.Repository
}

func NewUserService(repo repository.Repository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Register(ctx context.Context, restaurantID, name, email, password, role string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, invalid("Name is required")
	}
	if !validEmail(email) {
		return nil, invalid("A valid email address is required")
	}
	if len(password) < 8 {
		return nil, invalid("Password must be at least 8 characters")
	}
	switch role {
	case models.RoleOwner, models.RoleStaff, models.RoleAdmin:
	case "":
		role = models.RoleStaff
	default:
		return nil, invalid("Invalid role: %s", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		RestaurantID: restaurantID,
		Name:         name,
		Email:        email,
		Password:     string(hashed),
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Email already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	token, err := utils.GenerateToken(user.ID, user.RestaurantID, user.Role)
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("user_id", user.ID).Info("User logged in")
	return &LoginResult{Token: token, User: user}, nil
}
