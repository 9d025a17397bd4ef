package site

import "inkwell/templates"

// route names
const (
	RouteListPosts = "get_all_posts"
	RouteRegister  = "register"
	RouteLogin     = "login"
	RouteLogout    = "logout"
	RouteShowPost  = "show_post"
	RouteAbout     = "about"
	RouteContact   = "contact"
	RouteNewPost   = "add_new_post"
	RouteEditPost  = "edit_post"
)

var routePaths = map[string]string{
	RouteListPosts: "/all-posts",
	RouteRegister:  "/register",
	RouteLogin:     "/login",
	RouteLogout:    "/logout",
	RouteAbout:     "/about",
	RouteContact:   "/contact",
	RouteNewPost:   "/new-post",
}

// menu entries shown on each page
var navRules = map[string][]string{
	RouteListPosts: {"Home", "Register", "Logout", "About", "Contact"},
	RouteRegister:  {"Home", "Login", "About", "Contact"},
	RouteLogin:     {"Home", "Register", "About", "Contact"},
	RouteShowPost:  {"Home", "Register", "Logout", "About", "Contact"},
	RouteAbout:     {"Home", "Register", "Contact"},
	RouteContact:   {"Home", "Register", "About"},
	RouteNewPost:   {"Home", "Register", "Logout", "About", "Contact"},
	RouteEditPost:  {"Home", "Register", "Logout", "About", "Contact"},
}

// FindRoute maps a menu entry to its route name.
var FindRoute = map[string]string{
	"Home":     RouteListPosts,
	"Register": RouteRegister,
	"Login":    RouteLogin,
	"Logout":   RouteLogout,
	"About":    RouteAbout,
	"Contact":  RouteContact,
}

// NavFor returns the menu for route. Signed in visitors get Logout instead of
// Register and Login; anonymous visitors get Login instead of Logout.
func NavFor(route string, signedIn bool) []templates.NavLink {
	var links []templates.NavLink
	has := map[string]bool{}

	for _, label := range navRules[route] {
		switch {
		case signedIn && (label == "Register" || label == "Login"):
			continue
		case !signedIn && label == "Logout":
			continue
		}
		links = append(links, templates.NavLink{Label: label, Href: routePaths[FindRoute[label]]})
		has[label] = true
	}

	if signedIn && !has["Logout"] {
		links = append(links, templates.NavLink{Label: "Logout", Href: routePaths[RouteLogout]})
	}
	if !signedIn && !has["Login"] && route != RouteLogin {
		links = append(links, templates.NavLink{Label: "Login", Href: routePaths[RouteLogin]})
	}
	return links
}
