package templates

import (
	"fmt"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"inkwell/database"
	"inkwell/forms"
)

func postPath(id uint) string { return fmt.Sprintf("/post/%d", id) }

func PostListPage(posts []database.Post, canManage bool) g.Node {
	items := make([]g.Node, 0, len(posts))
	for _, p := range posts {
		items = append(items, Article(Class("card"),
			A(Href(postPath(p.ID)),
				H2(g.Text(p.Title)),
				H3(Class("text-grey"), g.Text(p.Subtitle)),
			),
			P(Small(g.Textf("Posted by %s on %s", p.Author.Name, p.Date))),
			g.If(canManage,
				A(Class("button error"), Href(fmt.Sprintf("/delete-post/%d", p.ID)), g.Text("Delete")),
			),
		))
	}

	return Div(
		H1(g.Text("Posts")),
		g.If(len(posts) == 0, P(Em(g.Text("Nothing has been published yet.")))),
		g.Group(items),
		g.If(canManage,
			P(Class("text-right"), A(Class("button primary"), Href("/new-post"), g.Text("Create New Post"))),
		),
	)
}

type PostPageProps struct {
	Post          *database.Post
	CanManage     bool
	SignedIn      bool
	Comment       forms.CommentInput
	CommentErrors forms.FieldErrors
	Avatar        AvatarOptions
}

func PostPage(props PostPageProps) g.Node {
	p := props.Post

	comments := make([]g.Node, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, Li(Class("comment"),
			Img(Src(GravatarURL(c.Author.Email, props.Avatar)), Alt(c.Author.Name), Class("avatar"),
				g.Attr("width", "50"), g.Attr("height", "50")),
			Div(Class("comment-body"), Markdown(c.Body, false)),
			Small(Class("text-grey"), g.Text(c.Author.Name)),
		))
	}

	return Article(
		Header(
			Img(Src(p.ImgURL), Alt(p.Title), Class("post-image")),
			H1(g.Text(p.Title)),
			H2(Class("text-grey"), g.Text(p.Subtitle)),
			P(Small(g.Textf("Posted by %s on %s", p.Author.Name, p.Date))),
		),
		Div(Class("post-body"), Markdown(p.Body, true)),
		g.If(props.CanManage,
			P(Class("text-right"),
				A(Class("button primary"), Href(fmt.Sprintf("/edit-post/%d", p.ID)), g.Text("Edit Post")),
			),
		),
		Hr(),
		Section(
			H3(g.Text("Comments")),
			form(postPath(p.ID), "Submit",
				textareaField("Comment", "comment_text", props.Comment.Body, "4", props.CommentErrors),
			),
			g.If(!props.SignedIn, P(Small(Class("text-grey"), g.Text("You need to log in to comment.")))),
			Ul(Class("comments"), g.Group(comments)),
		),
	)
}

func RegisterPage(in forms.RegisterInput, errs forms.FieldErrors) g.Node {
	return Div(
		H1(g.Text("Register")),
		P(g.Text("Start contributing to the blog!")),
		form("/register", "Sign Up",
			inputField("Email", "email", "email", in.Email, errs),
			inputField("Name", "name", "text", in.Name, errs),
			inputField("Password", "password", "password", "", errs),
		),
	)
}

func LoginPage(in forms.LoginInput, errs forms.FieldErrors) g.Node {
	return Div(
		H1(g.Text("Log In")),
		P(g.Text("Welcome back!")),
		form("/login", "Log in",
			inputField("Email", "email", "email", in.Email, errs),
			inputField("Password", "password", "password", "", errs),
		),
	)
}

type PostEditorProps struct {
	Input  forms.PostInput
	Errors forms.FieldErrors
	IsEdit bool
	Action string
}

func PostEditorPage(props PostEditorProps) g.Node {
	heading := "New Post"
	if props.IsEdit {
		heading = "Edit Post"
	}

	return Div(
		H1(g.Text(heading)),
		form(props.Action, "Submit Post",
			inputField("Blog Post Title", "title", "text", props.Input.Title, props.Errors),
			inputField("Subtitle", "subtitle", "text", props.Input.Subtitle, props.Errors),
			inputField("Blog Image URL", "img_url", "url", props.Input.ImgURL, props.Errors),
			textareaField("Blog Content", "body", props.Input.Body, "12", props.Errors),
		),
	)
}

func AboutPage(siteName string) g.Node {
	return Div(
		H1(g.Text("About Me")),
		P(g.Textf("%s is a small blog. Posts are written by the site administrator; anyone with an account can join the discussion in the comments.", siteName)),
	)
}

func ContactPage(siteName string) g.Node {
	return Div(
		H1(g.Text("Contact Me")),
		P(g.Textf("Have questions about %s? Leave a comment on any post and it will be answered there.", siteName)),
	)
}
