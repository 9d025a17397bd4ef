// Package session tracks who is signed in across requests. The browser holds
// a signed session id; the record itself lives in a Store.
package session

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"

	"inkwell/database"
)

// UserLoader resolves a session's user id. database.ErrNotFound means the
// user is gone and the request is treated as anonymous.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*database.User, error)
}

type Options struct {
	Secret []byte
	// PreviousSecrets still verify cookies issued before a secret rotation.
	PreviousSecrets [][]byte
	CookieName      string
	Secure          bool
}

type Manager struct {
	store  Store
	users  UserLoader
	codecs []securecookie.Codec
	cookie string
	secure bool
}

func NewManager(store Store, users UserLoader, opts Options) (*Manager, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}

	// hash keys only: the cookie carries an opaque id, nothing to encrypt
	pairs := [][]byte{opts.Secret, nil}
	for _, prev := range opts.PreviousSecrets {
		if len(prev) > 0 {
			pairs = append(pairs, prev, nil)
		}
	}
	codecs := securecookie.CodecsFromPairs(pairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(0)
			sc.SetSerializer(securecookie.JSONEncoder{})
		}
	}

	return &Manager{
		store:  store,
		users:  users,
		codecs: codecs,
		cookie: opts.CookieName,
		secure: opts.Secure,
	}, nil
}

type ctxKey int

const (
	stateKey ctxKey = iota
	userKey
)

// state is the per-request view of the session. id is empty until something
// needs to be persisted.
type state struct {
	id  string
	rec Record
}

func stateFrom(r *http.Request) *state {
	if st, ok := r.Context().Value(stateKey).(*state); ok {
		return st
	}
	return &state{}
}

// CurrentUser returns the signed in user or nil for anonymous requests.
func CurrentUser(ctx context.Context) *database.User {
	u, _ := ctx.Value(userKey).(*database.User)
	return u
}

// WithUser returns a context carrying u as the current user.
func WithUser(ctx context.Context, u *database.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Middleware loads the session named by the cookie and puts the current user
// into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		st := &state{}

		if c, err := r.Cookie(m.cookie); err == nil && c.Value != "" {
			if id, ok := m.decode(c.Value); ok {
				rec, err := m.store.Load(ctx, id)
				if err != nil {
					log.Printf("session load failed: %v", err)
				} else if rec != nil {
					st.id = id
					st.rec = *rec
				}
			}
			if st.id == "" {
				m.clearCookie(w)
			}
		}

		ctx = context.WithValue(ctx, stateKey, st)

		if st.rec.UserID != 0 {
			user, err := m.users.GetUserByID(ctx, st.rec.UserID)
			switch {
			case errors.Is(err, database.ErrNotFound):
				log.Printf("session %s refers to missing user %d", shortID(st.id), st.rec.UserID)
			case err != nil:
				log.Printf("session user lookup failed: %v", err)
			default:
				ctx = WithUser(ctx, user)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Login binds the session to user. A fresh session id is issued so an id
// known before login cannot be reused afterwards.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *database.User) error {
	st := stateFrom(r)
	oldID := st.id

	st.id = uuid.NewString()
	st.rec.UserID = user.ID
	if err := m.store.Save(r.Context(), st.id, &st.rec); err != nil {
		return err
	}
	if oldID != "" {
		if err := m.store.Delete(r.Context(), oldID); err != nil {
			log.Printf("failed to drop previous session: %v", err)
		}
	}

	return m.setCookie(w, st.id)
}

// Logout forgets the session. Later requests carrying the old cookie are
// anonymous.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	st := stateFrom(r)
	if st.id != "" {
		if err := m.store.Delete(r.Context(), st.id); err != nil {
			return err
		}
	}
	*st = state{}
	m.clearCookie(w)
	return nil
}

// AddFlash queues a one-shot notice for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	st := stateFrom(r)
	st.rec.Flashes = append(st.rec.Flashes, msg)

	if st.id == "" {
		st.id = uuid.NewString()
		if err := m.setCookie(w, st.id); err != nil {
			return err
		}
	}
	return m.store.Save(r.Context(), st.id, &st.rec)
}

// PopFlashes returns the queued notices and clears them. It must run before
// the response body is written. A session that only existed to carry the
// notices is dropped once they are shown.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []string {
	st := stateFrom(r)
	if len(st.rec.Flashes) == 0 {
		return nil
	}

	flashes := st.rec.Flashes
	st.rec.Flashes = nil

	if st.rec.UserID == 0 {
		if err := m.store.Delete(r.Context(), st.id); err != nil {
			log.Printf("failed to drop anonymous session: %v", err)
		}
		*st = state{}
		m.clearCookie(w)
		return flashes
	}

	if err := m.store.Save(r.Context(), st.id, &st.rec); err != nil {
		log.Printf("failed to clear flashes: %v", err)
	}
	return flashes
}

func (m *Manager) encode(id string) (string, error) {
	value, err := securecookie.EncodeMulti(m.cookie, id, m.codecs...)
	return value, errors.Wrap(err, "encode session cookie")
}

func (m *Manager) decode(value string) (string, bool) {
	var id string
	if err := securecookie.DecodeMulti(m.cookie, value, &id, m.codecs...); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	value, err := m.encode(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
