package users

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestCreateInputValidate(t *testing.T) {
	in := CreateInput{DNI: "30111222", Username: "ana", FirstName: "Ana", LastName: "Diaz",
		Email: "  Ana@Example.com ", Password: "s3cretpass"}
	require.NoError(t, in.Validate())
	assert.Equal(t, "ana@example.com", in.Email)
	assert.Equal(t, "client", in.Role)

	missing := in
	missing.LastName = ""
	assert.ErrorIs(t, missing.Validate(), apperr.ErrInvalid)

	badEmail := in
	badEmail.Email = "not-an-email"
	assert.ErrorIs(t, badEmail.Validate(), apperr.ErrInvalid)

	short := in
	short.Password = "abc"
	assert.ErrorIs(t, short.Validate(), apperr.ErrInvalid)
}

func TestPasswordChangeValidate(t *testing.T) {
	assert.NoError(t, PasswordChange{Old: "oldpassword", New: "newpassword", Confirm: "newpassword"}.Validate())
	assert.ErrorIs(t, PasswordChange{Old: "oldpassword", New: "newpassword", Confirm: "other"}.Validate(), apperr.ErrInvalid)
	assert.ErrorIs(t, PasswordChange{New: "newpassword", Confirm: "newpassword"}.Validate(), apperr.ErrInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", hash)
	assert.True(t, CheckPassword(hash, "s3cretpass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTestimonialValidate(t *testing.T) {
	assert.NoError(t, Testimonial{Content: "Great mate!"}.Validate())
	assert.ErrorIs(t, Testimonial{Content: "   "}.Validate(), apperr.ErrInvalid)
	assert.ErrorIs(t, Testimonial{Content: strings.Repeat("a", 1001)}.Validate(), apperr.ErrInvalid)
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, User{}.IsAdmin())
	assert.True(t, User{IsStaff: true}.IsAdmin())
	assert.True(t, User{IsSuperuser: true}.IsAdmin())
}
