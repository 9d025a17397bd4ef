package site

import (
	"log"
	"net/http"

	"github.com/pkg/errors"

	"inkwell/auth"
	"inkwell/database"
	"inkwell/forms"
	"inkwell/session"
	"inkwell/templates"
)

const (
	msgEmailTaken    = "This Email is already taken. Please try logging in."
	msgWeakPassword  = "Please enter a strong password. Must contain 8 characters or above."
	msgRegistered    = "Login with your new account."
	msgUnknownEmail  = "Email entered does not exist."
	msgWrongPassword = "Incorrect password! Try again."
)

func (s *Server) UserRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, http.StatusOK, RouteRegister, "Register", templates.RegisterPage(forms.RegisterInput{}, nil))

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		in, errs := forms.ParseRegister(r.PostForm)
		if errs.Any() {
			s.render(w, r, http.StatusOK, RouteRegister, "Register", templates.RegisterPage(in, errs))
			return
		}

		_, err := s.store.GetUserByEmail(r.Context(), in.Email)
		if err == nil {
			s.flashRedirect(w, r, msgEmailTaken, "/login")
			return
		}
		if !errors.Is(err, database.ErrNotFound) {
			serverError(w, r, err)
			return
		}

		if err := auth.CheckPasswordPolicy(in.Password); err != nil {
			s.flashRedirect(w, r, msgWeakPassword, "/register")
			return
		}

		digest, err := s.passwords.Hash(in.Password)
		if err != nil {
			serverError(w, r, err)
			return
		}

		var roles []string
		if s.cfg.IsAdminEmail(in.Email) {
			roles = append(roles, auth.RoleAdmin)
		}

		user := &database.User{Name: in.Name, Email: in.Email, PasswordDigest: digest}
		err = s.store.CreateUser(r.Context(), user, roles...)
		if errors.Is(err, database.ErrEmailTaken) {
			s.flashRedirect(w, r, msgEmailTaken, "/login")
			return
		}
		if err != nil {
			serverError(w, r, err)
			return
		}

		log.Printf("registered user %d (admin=%t)", user.ID, user.HasRole(auth.RoleAdmin))
		s.flashRedirect(w, r, msgRegistered, "/login")

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) UserLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if session.CurrentUser(r.Context()) != nil {
			http.Redirect(w, r, "/all-posts", http.StatusSeeOther)
			return
		}
		s.render(w, r, http.StatusOK, RouteLogin, "Log In", templates.LoginPage(forms.LoginInput{}, nil))

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		in, errs := forms.ParseLogin(r.PostForm)
		if errs.Any() {
			s.render(w, r, http.StatusOK, RouteLogin, "Log In", templates.LoginPage(in, errs))
			return
		}

		user, err := s.store.GetUserByEmail(r.Context(), in.Email)
		if errors.Is(err, database.ErrNotFound) {
			s.flashRedirect(w, r, msgUnknownEmail, "/login")
			return
		}
		if err != nil {
			serverError(w, r, err)
			return
		}

		if !s.passwords.Verify(user.PasswordDigest, in.Password) {
			log.Printf("login failed for user %d: wrong password", user.ID)
			s.flashRedirect(w, r, msgWrongPassword, "/login")
			return
		}

		if err := s.sessions.Login(w, r, user); err != nil {
			serverError(w, r, err)
			return
		}
		http.Redirect(w, r, "/all-posts", http.StatusSeeOther)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) UserLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
