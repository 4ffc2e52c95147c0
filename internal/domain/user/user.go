package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: full name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           ID
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrimaryRole is the role surfaced in API payloads. Admin wins when present.
func (u *User) PrimaryRole() Role {
	if u.HasRole(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
	All(ctx context.Context) ([]*User, error)
}

type CreateParams struct {
	ID           ID
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.FullName)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	roles, err := normalizeRoles(params.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}

	return &User{
		ID:           ID(id),
		Email:        email,
		FullName:     name,
		Phone:        strings.TrimSpace(params.Phone),
		PasswordHash: params.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) UpdateProfile(fullName, phone string, now time.Time) error {
	trimmed := strings.TrimSpace(fullName)
	if trimmed == "" {
		return ErrNameRequired
	}
	u.FullName = trimmed
	u.Phone = strings.TrimSpace(phone)
	u.touch(now)
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

func (u *User) EnsureRole(role Role, now time.Time) error {
	normalized, err := normalizeRoles([]Role{role})
	if err != nil {
		return err
	}
	if u.HasRole(normalized[0]) {
		return nil
	}
	u.Roles = append(u.Roles, normalized[0])
	u.touch(now)
	return nil
}

func (u *User) HasRole(role Role) bool {
	target := Role(strings.ToLower(strings.TrimSpace(string(role))))
	for _, current := range u.Roles {
		if Role(strings.ToLower(strings.TrimSpace(string(current)))) == target {
			return true
		}
	}
	return false
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeRoles(roles []Role) ([]Role, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	seen := make(map[Role]struct{}, len(roles))
	normalized := make([]Role, 0, len(roles))
	for _, role := range roles {
		var norm Role
		switch strings.ToLower(strings.TrimSpace(string(role))) {
		case "user":
			norm = RoleUser
		case "admin":
			norm = RoleAdmin
		default:
			return nil, ErrInvalidRole
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		normalized = append(normalized, norm)
	}
	return normalized, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
