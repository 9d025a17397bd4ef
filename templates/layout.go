// Package templates renders the HTML pages with gomponents.
package templates

import (
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type NavLink struct {
	Label string
	Href  string
}

type LayoutProps struct {
	Title       string
	SiteName    string
	CurrentUser string
	Nav         []NavLink
	Flashes     []string
}

func NavbarComponent(props LayoutProps) g.Node {
	links := make([]g.Node, 0, len(props.Nav))
	for _, link := range props.Nav {
		links = append(links, A(Href(link.Href), g.Text(link.Label)))
	}

	return Nav(Class("nav"),
		Div(Class("nav-left"),
			Div(Class("brand"), A(Href("/all-posts"), g.Text(props.SiteName))),
		),
		Div(Class("nav-right"),
			g.Group(links),
			g.If(props.CurrentUser != "",
				Span(Class("text-grey"), g.Textf("Logged in as %s", props.CurrentUser)),
			),
		),
	)
}

func FlashesComponent(flashes []string) g.Node {
	if len(flashes) == 0 {
		return nil
	}
	items := make([]g.Node, 0, len(flashes))
	for _, msg := range flashes {
		items = append(items, P(Class("flash"), g.Text(msg)))
	}
	return Div(Class("card bg-light"), g.Group(items))
}

func FooterComponent(siteName string) g.Node {
	return Footer(Class("footer text-center"),
		P(Small(g.Textf("%s. Comments are written in markdown.", siteName))),
	)
}

func Layout(props LayoutProps, children ...g.Node) g.Node {
	title := props.SiteName
	if props.Title != "" {
		title = props.Title + " | " + props.SiteName
	}

	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Link(Rel("stylesheet"), Href("https://unpkg.com/chota@0.9.2/dist/chota.min.css")),
				TitleEl(g.Text(title)),
			),
			Body(
				Div(Class("container"), Style("margin-top: 1.5em;"),
					NavbarComponent(props),
					FlashesComponent(props.Flashes),
					Main(
						g.Group(children),
					),
				),
				FooterComponent(props.SiteName),
			),
		),
	)
}
