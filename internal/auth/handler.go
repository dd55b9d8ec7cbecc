package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/ayush/animanga/backend/internal/remember"
	"github.com/ayush/animanga/backend/internal/session"
)

const (
	HomePage   = "index.html"
	LoginPage  = "login.html"
	SignupPage = "signup.html"
)

// Result is the JSON body of every auth endpoint.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	tokens   *remember.Service
	log      logrus.FieldLogger
	secure   bool
}

func NewHandler(svc *Service, sessions *session.Manager, tokens *remember.Service, log logrus.FieldLogger, secureCookies bool) *Handler {
	return &Handler{svc: svc, sessions: sessions, tokens: tokens, log: log, secure: secureCookies}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		h.log.WithError(err).Error("unclassified auth failure")
		ae = &Error{Kind: KindStorage, Message: MsgLoginFailed, Err: err}
	}
	writeJSON(w, ae.Kind.Status(), Result{Message: ae.Message})
}

// Login authenticates the form credentials, starts a session and, when
// "remember" is present, hands out a remember_me cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, validationError(MsgMissingFields))
		return
	}
	_, rememberMe := r.PostForm["remember"]
	req := models.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Remember: rememberMe,
	}

	user, err := h.svc.Authenticate(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	if _, err := h.sessions.Establish(r.Context(), w, r, user); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Error("session establish failed")
		h.fail(w, &Error{Kind: KindStorage, Message: MsgLoginFailed, Err: err})
		return
	}

	if req.Remember {
		bearer, err := h.tokens.Issue(r.Context(), user.ID)
		if err != nil {
			h.log.WithError(err).WithField("user_id", user.ID).Error("remember-me issue failed")
			if derr := h.sessions.Destroy(r.Context(), w, r); derr != nil {
				h.log.WithError(derr).Warn("session rollback failed")
			}
			h.fail(w, &Error{Kind: KindStorage, Message: MsgLoginFailed, Err: err})
			return
		}
		http.SetCookie(w, remember.Cookie(bearer, h.secure))
	}

	writeJSON(w, http.StatusOK, Result{Success: true, Message: MsgLoginOK, Redirect: HomePage})
}

// Signup registers a user from the form and starts a session.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, validationError(MsgMissingFields))
		return
	}
	req := models.SignupRequest{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm-password"),
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	if _, err := h.sessions.Establish(r.Context(), w, r, user); err != nil {
		// The account exists; only the session is missing, so send the
		// visitor to the login page.
		h.log.WithError(err).WithField("user_id", user.ID).Error("session establish failed")
		writeJSON(w, http.StatusOK, Result{Success: true, Message: MsgSignupOK, Redirect: LoginPage})
		return
	}

	writeJSON(w, http.StatusOK, Result{Success: true, Message: MsgSignupOK, Redirect: HomePage})
}

// Page returns the handler for direct (non-form) visits to a form page:
// logged-in visitors go to the home page, others to the static page.
func (h *Handler) Page(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.Current(r.Context()); ok {
			http.Redirect(w, r, "/"+HomePage, http.StatusFound)
			return
		}
		http.Redirect(w, r, "/"+page, http.StatusFound)
	}
}

// Logout destroys the current session and revokes remember-me tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.Current(r.Context()); ok {
		if err := h.tokens.Revoke(r.Context(), s.UserID); err != nil {
			h.log.WithError(err).WithField("user_id", s.UserID).Error("revoke on logout failed")
		}
	}
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.log.WithError(err).Warn("session destroy failed")
	}
	http.SetCookie(w, remember.ClearCookie(h.secure))

	writeJSON(w, http.StatusOK, Result{Success: true, Message: MsgLoggedOut, Redirect: LoginPage})
}

// Me returns the identity of the current session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.Current(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}
