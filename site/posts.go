package site

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"inkwell/auth"
	"inkwell/constants"
	"inkwell/database"
	"inkwell/forms"
	"inkwell/session"
	"inkwell/templates"
)

const (
	msgLoginToComment = "Please login before commenting."
	msgTitleTaken     = "A post with this title already exists."
)

func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	canManage := s.can(session.CurrentUser(r.Context()), auth.ManagePosts)
	s.render(w, r, http.StatusOK, RouteListPosts, "", templates.PostListPage(posts, canManage))
}

func (s *Server) ShowPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	user := session.CurrentUser(r.Context())

	switch r.Method {
	case http.MethodGet:
		s.renderPost(w, r, http.StatusOK, id, forms.CommentInput{}, nil)

	case http.MethodPost:
		if user == nil {
			s.flashRedirect(w, r, msgLoginToComment, "/login")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		in, errs := forms.ParseComment(r.PostForm)
		if errs.Any() {
			s.renderPost(w, r, http.StatusOK, id, in, errs)
			return
		}

		err := s.store.CreateComment(r.Context(), &database.Comment{
			Body:     in.Body,
			AuthorID: user.ID,
			PostID:   id,
		})
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		if err != nil {
			serverError(w, r, err)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) renderPost(w http.ResponseWriter, r *http.Request, status int, id uint, in forms.CommentInput, errs forms.FieldErrors) {
	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	user := session.CurrentUser(r.Context())
	s.render(w, r, status, RouteShowPost, post.Title, templates.PostPage(templates.PostPageProps{
		Post:          post,
		CanManage:     s.can(user, auth.ManagePosts),
		SignedIn:      user != nil,
		Comment:       in,
		CommentErrors: errs,
		Avatar:        templates.AvatarOptions{Size: s.cfg.Avatar.Size, Default: s.cfg.Avatar.Default},
	}))
}

// Permalink redirects /p/{slug} to the post page.
func (s *Server) Permalink(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
}

func (s *Server) About(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, RouteAbout, "About", templates.AboutPage(s.cfg.Site.Name))
}

func (s *Server) Contact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, RouteContact, "Contact", templates.ContactPage(s.cfg.Site.Name))
}

func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	editor := func(in forms.PostInput, errs forms.FieldErrors) {
		s.render(w, r, http.StatusOK, RouteNewPost, "New Post", templates.PostEditorPage(templates.PostEditorProps{
			Input:  in,
			Errors: errs,
			Action: "/new-post",
		}))
	}

	switch r.Method {
	case http.MethodGet:
		editor(forms.PostInput{}, nil)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		in, errs := forms.ParsePost(r.PostForm)
		if errs.Any() {
			editor(in, errs)
			return
		}

		user := session.CurrentUser(r.Context())
		post := &database.Post{
			AuthorID: user.ID,
			Title:    in.Title,
			Subtitle: in.Subtitle,
			Body:     in.Body,
			ImgURL:   in.ImgURL,
			Date:     s.now().Format(constants.POST_DATE_LAYOUT),
		}
		err := s.store.CreatePost(r.Context(), post)
		if errors.Is(err, database.ErrTitleTaken) {
			editor(in, forms.FieldErrors{"title": msgTitleTaken})
			return
		}
		if err != nil {
			serverError(w, r, err)
			return
		}

		log.Printf("user %d created post %d", user.ID, post.ID)
		http.Redirect(w, r, "/all-posts", http.StatusSeeOther)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) EditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	action := fmt.Sprintf("/edit-post/%d", id)
	editor := func(in forms.PostInput, errs forms.FieldErrors) {
		s.render(w, r, http.StatusOK, RouteEditPost, "Edit Post", templates.PostEditorPage(templates.PostEditorProps{
			Input:  in,
			Errors: errs,
			IsEdit: true,
			Action: action,
		}))
	}

	switch r.Method {
	case http.MethodGet:
		editor(forms.PostInput{
			Title:    post.Title,
			Subtitle: post.Subtitle,
			ImgURL:   post.ImgURL,
			Body:     post.Body,
		}, nil)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		in, errs := forms.ParsePost(r.PostForm)
		if errs.Any() {
			editor(in, errs)
			return
		}

		err := s.store.UpdatePost(r.Context(), id, database.PostChanges{
			Title:    in.Title,
			Subtitle: in.Subtitle,
			ImgURL:   in.ImgURL,
			Body:     in.Body,
		})
		switch {
		case errors.Is(err, database.ErrTitleTaken):
			editor(in, forms.FieldErrors{"title": msgTitleTaken})
			return
		case errors.Is(err, database.ErrNotFound):
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		case err != nil:
			serverError(w, r, err)
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	err := s.store.DeletePost(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	log.Printf("post %d deleted", id)
	http.Redirect(w, r, "/all-posts", http.StatusSeeOther)
}
