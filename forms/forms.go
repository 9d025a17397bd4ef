// Package forms turns submitted form values into validated inputs. It knows
// nothing about HTML; rendering lives in the templates package.
package forms

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldErrors maps a form field name to its first validation message.
type FieldErrors map[string]string

func (e FieldErrors) Any() bool { return len(e) > 0 }

func (e FieldErrors) add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

const (
	requiredMsg   = "This field is required."
	invalidURLMsg = "Invalid URL."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields under their form names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})

	// http_url accepts any host; images must come from a real domain
	_ = v.RegisterValidation("web_host", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if strings.ContainsAny(raw, " \t\r\n") {
			return false
		}
		u, err := url.Parse(raw)
		if err != nil {
			return false
		}
		host := u.Hostname()
		return host == "localhost" ||
			(strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, "."))
	})
	return v
}

func check(in any) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(in)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(err) // only a non-struct argument gets here
	}
	for _, fe := range verrs {
		errs.add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredMsg
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "http_url", "web_host":
		return invalidURLMsg
	default:
		return "Invalid value."
	}
}

type RegisterInput struct {
	Email    string `form:"email" validate:"required"`
	Name     string `form:"name" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ParseRegister validates the sign up form. Password strength is a business
// rule checked by the handler, here it only has to be present.
func ParseRegister(v url.Values) (RegisterInput, FieldErrors) {
	in := RegisterInput{
		Email:    strings.TrimSpace(v.Get("email")),
		Name:     strings.TrimSpace(v.Get("name")),
		Password: v.Get("password"),
	}
	return in, check(in)
}

type LoginInput struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func ParseLogin(v url.Values) (LoginInput, FieldErrors) {
	in := LoginInput{
		Email:    strings.TrimSpace(v.Get("email")),
		Password: v.Get("password"),
	}
	return in, check(in)
}

type CommentInput struct {
	Body string `form:"comment_text" validate:"required,max=5500"`
}

func ParseComment(v url.Values) (CommentInput, FieldErrors) {
	in := CommentInput{Body: strings.TrimSpace(v.Get("comment_text"))}
	return in, check(in)
}

type PostInput struct {
	Title    string `form:"title" validate:"required,max=250"`
	Subtitle string `form:"subtitle" validate:"required,max=250"`
	ImgURL   string `form:"img_url" validate:"required,http_url,web_host"`
	Body     string `form:"body" validate:"required"`
}

func ParsePost(v url.Values) (PostInput, FieldErrors) {
	in := PostInput{
		Title:    strings.TrimSpace(v.Get("title")),
		Subtitle: strings.TrimSpace(v.Get("subtitle")),
		ImgURL:   strings.TrimSpace(v.Get("img_url")),
		Body:     strings.TrimSpace(v.Get("body")),
	}
	return in, check(in)
}

// IsValidURL accepts absolute http(s) URLs whose host has a dotted domain or
// is localhost.
func IsValidURL(raw string) bool {
	return validate.Var(raw, "http_url,web_host") == nil
}
