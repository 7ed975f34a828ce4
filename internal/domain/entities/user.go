package entities

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is the account document stored in the users collection. Password and
// RefreshToken never leave the server: both are excluded from JSON encoding.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Password     string               `bson:"password" json:"-"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	CoverImage   string               `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func NewUser(username, email, fullName, password string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     strings.ToLower(strings.TrimSpace(username)),
		Email:        strings.TrimSpace(email),
		FullName:     strings.TrimSpace(fullName),
		Password:     password,
		WatchHistory: make([]primitive.ObjectID, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) validate() error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	if u.Email == "" {
		return errors.New("email must not be empty")
	}
	if !emailPattern.MatchString(u.Email) {
		return errors.New("email address is malformed")
	}
	if u.FullName == "" {
		return errors.New("full name must not be empty")
	}
	if u.Password == "" {
		return errors.New("password must not be empty")
	}
	return nil
}

// HashPassword replaces the plaintext password with its bcrypt hash. Callers
// invoke it exactly once per password change, never on unrelated updates.
func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword compares the stored hash against a plaintext candidate.
// bcrypt's comparison is constant-effort for a given cost.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (u *User) SetPassword(password string) error {
	if password == "" {
		return errors.New("password must not be empty")
	}
	u.Password = password
	u.UpdatedAt = time.Now().UTC()
	return u.HashPassword()
}

func (u *User) UpdateAccountDetails(fullName, email string) error {
	u.FullName = strings.TrimSpace(fullName)
	u.Email = strings.TrimSpace(email)
	u.UpdatedAt = time.Now().UTC()
	return u.validate()
}

// ValidEmail reports whether the address matches the accepted shape
// (local-part@domain with a dot-separated domain).
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
