package services

import (
	"context"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	jwtutil "github.com/mnbarber/bookden/pkg/jwt"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService covers account creation, login and profile updates. Session
// mechanics stay thin; everything downstream only consumes the validated
// user ID the middleware injects.
type UserService struct {
	repo      UserStore
	jwtSecret string
}

func NewUserService(repo UserStore, jwtSecret string) *UserService {
	return &UserService{repo: repo, jwtSecret: jwtSecret}
}

// Register creates a new account with a hashed password. Profiles default
// to public.
func (s *UserService) Register(ctx context.Context, username, emailAddr, password string) (*models.User, error) {
	if username == "" || emailAddr == "" || password == "" {
		return nil, apperrors.InvalidArgument("username, email and password are required")
	}
	if !emailRegex.MatchString(emailAddr) {
		return nil, apperrors.InvalidArgument("invalid email format")
	}

	if existing, _ := s.repo.GetUserByEmail(ctx, emailAddr); existing != nil {
		return nil, apperrors.Conflict("email already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, &models.User{
		Username:       username,
		Email:          emailAddr,
		HashedPassword: string(hashed),
	})
	if err != nil {
		return nil, apperrors.Internal("failed to create user", err)
	}

	logger.Log.WithField("userID", user.ID.Hex()).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return "", nil, apperrors.Forbidden("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, apperrors.Forbidden("invalid credentials")
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Username, s.jwtSecret, 24*time.Hour)
	if err != nil {
		return "", nil, apperrors.Internal("failed to issue token", err)
	}
	return token, user, nil
}

// GetUser returns a user's public profile.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}
	return &models.PublicUser{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}, nil
}

// UpdateProfile changes username, avatar URL and/or the privacy flag. The
// avatar URL comes from the blob-storage collaborator; it is stored as-is.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, username, avatarURL *string, isPrivate *bool) error {
	if username != nil && *username == "" {
		return apperrors.InvalidArgument("username must not be empty")
	}
	if err := s.repo.UpdateProfile(ctx, id, username, avatarURL, isPrivate); err != nil {
		return apperrors.Internal("failed to update profile", err)
	}
	return nil
}
