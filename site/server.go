// Package site holds the HTTP handlers, the access gate and the navigation
// table.
package site

import (
	"bytes"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	g "github.com/maragudk/gomponents"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/database"
	"inkwell/session"
	"inkwell/templates"
)

type Server struct {
	cfg       config.Config
	store     *database.Store
	sessions  *session.Manager
	passwords auth.PasswordCodec
	policy    auth.Authorizer

	now func() time.Time
}

func NewServer(cfg config.Config, store *database.Store, sessions *session.Manager, passwords auth.PasswordCodec, policy auth.Authorizer) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
		passwords: passwords,
		policy:    policy,
		now:       time.Now,
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	if rpm := s.cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		r.Use(httprate.LimitByIP(rpm, time.Minute))
	}
	r.Use(middleware.Recoverer)
	r.Use(s.sessions.Middleware)

	r.Get("/healthz", s.Healthz)

	r.HandleFunc("/", s.UserLogin)
	r.HandleFunc("/login", s.UserLogin)
	r.HandleFunc("/register", s.UserRegister)
	r.Get("/logout", s.UserLogout)

	r.Get("/all-posts", s.ListPosts)
	r.HandleFunc("/post/{postID}", s.ShowPost)
	r.Get("/p/{slug}", s.Permalink)
	r.Get("/about", s.About)
	r.Get("/contact", s.Contact)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireCapability(auth.ManagePosts))

		r.HandleFunc("/new-post", s.CreatePost)
		r.HandleFunc("/edit-post/{postID}", s.EditPost)
		r.Get("/delete-post/{postID}", s.DeletePost)
	})

	return r
}

func (s *Server) can(user *database.User, c auth.Capability) bool {
	return user != nil && s.policy.Can(user, c)
}

// render wraps content in the layout for route and writes it with status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, route, title string, content g.Node) {
	user := session.CurrentUser(r.Context())

	props := templates.LayoutProps{
		Title:    title,
		SiteName: s.cfg.Site.Name,
		Nav:      NavFor(route, user != nil),
		Flashes:  s.sessions.PopFlashes(w, r),
	}
	if user != nil {
		props.CurrentUser = user.Name
	}

	var buf bytes.Buffer
	if err := templates.Layout(props, content).Render(&buf); err != nil {
		log.Printf("Template execution error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// flashRedirect queues msg for the next page and redirects to path.
func (s *Server) flashRedirect(w http.ResponseWriter, r *http.Request, msg, path string) {
	if err := s.sessions.AddFlash(w, r, msg); err != nil {
		log.Printf("failed to store flash: %v", err)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func postIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Printf("health check failed: %v", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
