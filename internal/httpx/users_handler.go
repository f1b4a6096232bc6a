package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/auth"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type UserStore interface {
	Create(ctx context.Context, in users.CreateInput) (*users.User, error)
	Get(ctx context.Context, dni string) (*users.User, error)
	Update(ctx context.Context, username string, in users.UpdateInput) (*users.User, error)
	Delete(ctx context.Context, username string) error
	ListClients(ctx context.Context) ([]users.User, error)
	ChangePassword(ctx context.Context, dni string, pc users.PasswordChange) error
	CreateTestimonial(ctx context.Context, t *users.Testimonial) error
	Testimonials(ctx context.Context, userDNI string) ([]users.Testimonial, error)
	RemoveTestimonial(ctx context.Context, id int64, authorDNI string) error
}

type TokenService interface {
	Obtain(ctx context.Context, cred auth.Credentials) (auth.Pair, error)
}

type TokenManager interface {
	Refresh(ctx context.Context, refresh string) (auth.Pair, error)
	Logout(ctx context.Context, refresh, access string) error
}

type UsersHandler struct {
	Users  UserStore
	Login  TokenService
	Tokens TokenManager
	Guard  Guard
}

func (h *UsersHandler) Register(r *chi.Mux) {
	r.Post("/users/token/obtain/", h.obtain)
	r.Post("/users/token/refresh/", h.refresh)
	r.Post("/users/create/", h.create)
	r.Get("/testimonials/", h.testimonials)

	user := h.Guard.User(r)
	user.Post("/users/logout/", h.logout)
	user.Get("/users/user/", h.me)
	user.Put("/users/user/update/", h.update)
	user.Delete("/users/delete/", h.remove)
	user.Put("/users/user/change-password/", h.changePassword)
	user.Post("/testimonials/create/", h.createTestimonial)
	user.Get("/testimonials/user/", h.myTestimonials)
	user.Delete("/testimonials/testimonial/remove/", h.removeOwnTestimonial)

	admin := h.Guard.Admin(r)
	admin.Get("/dashboard/clients/", h.clients)
	admin.Delete("/testimonials/remove/", h.removeTestimonial)
}

func (h *UsersHandler) obtain(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := decode(r, &cred); err != nil {
		writeErr(w, r, err)
		return
	}
	pair, err := h.Login.Obtain(r.Context(), cred)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

func (h *UsersHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Refresh == "" {
		writeErr(w, r, apperr.Invalid("refresh token is required"))
		return
	}
	pair, err := h.Tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *UsersHandler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.Tokens.Logout(r.Context(), req.Refresh, auth.BearerToken(r)); err != nil {
		writeErr(w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "logged out")
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in users.CreateInput
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), principal(r).DNI)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// canManage allows admins anything and users only their own account.
func (h *UsersHandler) canManage(r *http.Request, username string) error {
	if username == "" {
		return apperr.Invalid("username field is required")
	}
	p := principal(r)
	if p.Admin {
		return nil
	}
	me, err := h.Users.Get(r.Context(), p.DNI)
	if err != nil {
		return err
	}
	if me.Username != username {
		return apperr.Forbidden("you can only manage your own account")
	}
	return nil
}

type userUpdate struct {
	Username string `json:"username"`
	users.UpdateInput
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var req userUpdate
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.canManage(r, req.Username); err != nil {
		writeErr(w, r, err)
		return
	}
	u, err := h.Users.Update(r.Context(), req.Username, req.UpdateInput)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type usernameReq struct {
	Username string `json:"username"`
}

func (h *UsersHandler) remove(w http.ResponseWriter, r *http.Request) {
	var req usernameReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	err := h.canManage(r, req.Username)
	if err == nil {
		err = h.Users.Delete(r.Context(), req.Username)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "user deleted")
}

func (h *UsersHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var pc users.PasswordChange
	if err := decode(r, &pc); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.Users.ChangePassword(r.Context(), principal(r).DNI, pc); err != nil {
		writeErr(w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "password updated")
}

func (h *UsersHandler) clients(w http.ResponseWriter, r *http.Request) {
	us, err := h.Users.ListClients(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *UsersHandler) createTestimonial(w http.ResponseWriter, r *http.Request) {
	var t users.Testimonial
	if err := decode(r, &t); err != nil {
		writeErr(w, r, err)
		return
	}
	t.UserDNI = principal(r).DNI
	if err := h.Users.CreateTestimonial(r.Context(), &t); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *UsersHandler) testimonials(w http.ResponseWriter, r *http.Request) {
	h.listTestimonials(w, r, "")
}

func (h *UsersHandler) myTestimonials(w http.ResponseWriter, r *http.Request) {
	h.listTestimonials(w, r, principal(r).DNI)
}

func (h *UsersHandler) listTestimonials(w http.ResponseWriter, r *http.Request, dni string) {
	ts, err := h.Users.Testimonials(r.Context(), dni)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *UsersHandler) removeOwnTestimonial(w http.ResponseWriter, r *http.Request) {
	h.dropTestimonial(w, r, principal(r).DNI)
}

func (h *UsersHandler) removeTestimonial(w http.ResponseWriter, r *http.Request) {
	h.dropTestimonial(w, r, "")
}

func (h *UsersHandler) dropTestimonial(w http.ResponseWriter, r *http.Request, authorDNI string) {
	id, err := queryID(r, "id")
	if err == nil {
		err = h.Users.RemoveTestimonial(r.Context(), id, authorDNI)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
