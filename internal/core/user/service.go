package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/pkg/common"
)

// Profile age bounds. Birth dates outside this range are rejected on
// update; the planner treats them as unset.
const (
	MinAge = 13
	MaxAge = 120
)

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// ProfileUpdateInput is the payload for partial profile updates. Pointer
// fields distinguish "absent" from "set to zero".
type ProfileUpdateInput struct {
	FullName    *string    `json:"fullName"`
	PhoneNumber *string    `json:"phoneNumber"`
	Gender      *string    `json:"gender"`
	BirthDate   *time.Time `json:"birthDate"`
	Job         *string    `json:"job"`
	HeightCm    *float64   `json:"heightCm"`
	WeightKg    *float64   `json:"weightKg"`
}

// Service implements account registration, login and profile updates.
type Service struct {
	repo   *Repository
	tokens *TokenIssuer
	log    *zap.Logger
}

// NewService creates a user service.
func NewService(repo *Repository, tokens *TokenIssuer, log *zap.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log.Named("user-service")}
}

// Register creates a customer account and returns it with a token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	u := &User{
		Username:    strings.TrimSpace(in.Username),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Password:    hash,
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	return u, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var ce *common.CustomError
		if errors.As(err, &ce) && ce.Code == common.ErrCodeNotFound {
			return nil, "", common.NewError(common.ErrCodeUnauthenticated, "invalid email or password", 401, nil)
		}
		return nil, "", err
	}
	if !CheckPassword(u.Password, password) {
		return nil, "", common.NewError(common.ErrCodeUnauthenticated, "invalid email or password", 401, nil)
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile validates and applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileUpdateInput) (*User, error) {
	set := bson.M{}
	if in.FullName != nil {
		set["fullName"] = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		set["phoneNumber"] = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Gender != nil {
		g := strings.ToLower(*in.Gender)
		if g != "male" && g != "female" {
			return nil, common.NewValidationError("gender must be 'male' or 'female'")
		}
		set["gender"] = g
	}
	if in.BirthDate != nil {
		probe := User{BirthDate: in.BirthDate}
		age, _ := probe.AgeAt(time.Now())
		if age < MinAge || age > MaxAge {
			return nil, common.NewValidationError("birthDate implies an age outside 13-120")
		}
		set["birthDate"] = *in.BirthDate
	}
	if in.Job != nil {
		j := strings.ToLower(*in.Job)
		if j != JobPupil && j != JobStudent && j != JobEmployed {
			return nil, common.NewValidationError("job must be 'pupil', 'student' or 'employed'")
		}
		set["job"] = j
	}
	if in.HeightCm != nil {
		if *in.HeightCm <= 0 {
			return nil, common.NewValidationError("heightCm must be positive")
		}
		set["heightCm"] = *in.HeightCm
	}
	if in.WeightKg != nil {
		if *in.WeightKg <= 0 {
			return nil, common.NewValidationError("weightKg must be positive")
		}
		set["weightKg"] = *in.WeightKg
	}
	if len(set) == 0 {
		return nil, common.NewValidationError("no updatable fields in request")
	}
	return s.repo.UpdateProfile(ctx, id, set)
}
