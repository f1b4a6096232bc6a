package users

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strings"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `dni, username, email, password_hash, first_name, last_name, address, phone, role,
	is_staff, is_superuser, date_joined, last_login`

func scan(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.DNI, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Address, &u.Phone, &u.Role, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &u.LastLogin); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := scan(r.DB.QueryRow(ctx, `
		INSERT INTO users(dni, username, email, password_hash, first_name, last_name, address, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+columns,
		in.DNI, in.Username, in.Email, hash, in.FirstName, in.LastName, in.Address, in.Phone, in.Role))
	if postgres.IsUniqueViolation(err) {
		return nil, uniqueConflict(err, in)
	}
	return u, err
}

func uniqueConflict(err error, in CreateInput) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return apperr.Conflict("user with %s already exists", in.Email)
	case strings.Contains(msg, "username"):
		return apperr.Conflict("user with %s already exists", in.Username)
	}
	return apperr.Conflict("user with dni %s already exists", in.DNI)
}

// Get loads a user and the number of orders they placed.
func (r *Repo) Get(ctx context.Context, dni string) (*User, error) {
	u, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE dni=$1`, dni))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("user %s not found", dni)
	}
	if err != nil {
		return nil, err
	}
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_dni=$1`, dni).Scan(&n); err != nil {
		return nil, err
	}
	u.OrderCount = &n
	return u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("user %s not found", email)
	}
	return u, err
}

func (r *Repo) TouchLogin(ctx context.Context, dni string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET last_login = now() WHERE dni=$1`, dni)
	return err
}

// Update edits the profile of the user with the given username.
func (r *Repo) Update(ctx context.Context, username string, in UpdateInput) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperr.Invalid("username field is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := scan(r.DB.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			address = COALESCE($5, address),
			phone = COALESCE($6, phone)
		WHERE username=$1 RETURNING `+columns,
		username, in.FirstName, in.LastName, in.Email, in.Address, in.Phone))
	switch {
	case postgres.IsNoRows(err):
		return nil, apperr.NotFound("user %s not found", username)
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("email already in use")
	}
	return u, err
}

func (r *Repo) Delete(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return apperr.Invalid("username field is required")
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE username=$1`, username)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("user %s not found", username)
	}
	return nil
}

// ListClients returns every user that is neither staff nor superuser.
func (r *Repo) ListClients(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+columns+` FROM users WHERE NOT is_staff AND NOT is_superuser ORDER BY date_joined DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repo) ChangePassword(ctx context.Context, dni string, pc PasswordChange) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	var hash string
	err := r.DB.QueryRow(ctx, `SELECT password_hash FROM users WHERE dni=$1`, dni).Scan(&hash)
	if postgres.IsNoRows(err) {
		return apperr.NotFound("user %s not found", dni)
	}
	if err != nil {
		return err
	}
	if !CheckPassword(hash, pc.Old) {
		return apperr.Invalid("old password is incorrect")
	}
	newHash, err := HashPassword(pc.New)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `UPDATE users SET password_hash=$2 WHERE dni=$1`, dni, newHash)
	return err
}

// ---- testimonials ----

func (r *Repo) CreateTestimonial(ctx context.Context, t *Testimonial) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO testimonials(user_dni, content) VALUES ($1, $2) RETURNING id, created_at`,
		t.UserDNI, t.Content).Scan(&t.ID, &t.CreatedAt)
}

// Testimonials lists all testimonials, or only the author's when userDNI is set.
func (r *Repo) Testimonials(ctx context.Context, userDNI string) ([]Testimonial, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT t.id, t.user_dni, u.username, t.content, t.created_at
		FROM testimonials t JOIN users u ON u.dni = t.user_dni
		WHERE $1 = '' OR t.user_dni = $1
		ORDER BY t.created_at DESC, t.id DESC`, userDNI)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Testimonial{}
	for rows.Next() {
		var t Testimonial
		if err := rows.Scan(&t.ID, &t.UserDNI, &t.Username, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RemoveTestimonial deletes a testimonial. A non-empty authorDNI restricts it to the author's own.
func (r *Repo) RemoveTestimonial(ctx context.Context, id int64, authorDNI string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM testimonials WHERE id=$1 AND ($2 = '' OR user_dni = $2)`, id, authorDNI)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("testimonial %d not found", id)
	}
	return nil
}
