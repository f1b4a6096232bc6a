package users

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
	"net/mail"
	"strings"
	"time"
)

type User struct {
	DNI          string     `json:"dni"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	Role         string     `json:"rol"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login"`
	OrderCount   *int       `json:"orders_count,omitempty"`
}

// IsAdmin mirrors the dashboard permission: staff or superuser.
func (u User) IsAdmin() bool { return u.IsStaff || u.IsSuperuser }

type CreateInput struct {
	DNI       string `json:"dni"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Role      string `json:"rol"`
}

const minPasswordLen = 8

func (in *CreateInput) Validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	for _, f := range []string{in.DNI, in.Username, in.FirstName, in.LastName, in.Email, in.Password} {
		if strings.TrimSpace(f) == "" {
			return apperr.Invalid("some fields are missing")
		}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperr.Invalid("email %q is not valid", in.Email)
	}
	if len(in.Password) < minPasswordLen {
		return apperr.Invalid("password must have at least %d characters", minPasswordLen)
	}
	if len(in.Phone) > 15 {
		return apperr.Invalid("phone must be at most 15 characters")
	}
	if in.Role == "" {
		in.Role = "client"
	}
	return nil
}

type UpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
}

func (in *UpdateInput) Validate() error {
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(e); err != nil {
			return apperr.Invalid("email %q is not valid", e)
		}
		in.Email = &e
	}
	if in.Phone != nil && len(*in.Phone) > 15 {
		return apperr.Invalid("phone must be at most 15 characters")
	}
	return nil
}

type PasswordChange struct {
	Old     string `json:"old_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

func (pc PasswordChange) Validate() error {
	if pc.Old == "" || pc.New == "" {
		return apperr.Invalid("old_password and new_password are required")
	}
	if pc.New != pc.Confirm {
		return apperr.Invalid("new passwords do not match")
	}
	if len(pc.New) < minPasswordLen {
		return apperr.Invalid("password must have at least %d characters", minPasswordLen)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type Testimonial struct {
	ID        int64     `json:"id"`
	UserDNI   string    `json:"user"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"raw_comment"`
	CreatedAt time.Time `json:"pub_date"`
}

const maxTestimonialLen = 1000

func (t Testimonial) Validate() error {
	if strings.TrimSpace(t.Content) == "" {
		return apperr.Invalid("raw_comment is required")
	}
	if len([]rune(t.Content)) > maxTestimonialLen {
		return apperr.Invalid("raw_comment must be at most %d characters", maxTestimonialLen)
	}
	return nil
}
