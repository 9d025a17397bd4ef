package templates

import (
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"inkwell/forms"
)

func label(forField, text string) g.Node {
	return g.El("label", g.Attr("for", forField), g.Text(text))
}

func fieldError(errs forms.FieldErrors, name string) g.Node {
	msg, ok := errs[name]
	if !ok {
		return nil
	}
	return Small(Class("text-error"), g.Text(msg))
}

func inputField(labelText, name, inputType, value string, errs forms.FieldErrors) g.Node {
	return P(
		label(name, labelText),
		Input(Type(inputType), ID(name), Name(name), Value(value)),
		fieldError(errs, name),
	)
}

func textareaField(labelText, name, value string, rows string, errs forms.FieldErrors) g.Node {
	return P(
		label(name, labelText),
		Textarea(ID(name), Name(name), g.Attr("rows", rows), g.Text(value)),
		fieldError(errs, name),
	)
}

func form(action string, submit string, children ...g.Node) g.Node {
	return g.El("form", Method("post"), Action(action), g.Attr("novalidate"),
		g.Group(children),
		Button(Type("submit"), Class("button primary"), g.Text(submit)),
	)
}
