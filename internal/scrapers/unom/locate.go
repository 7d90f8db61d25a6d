package unom

import (
	"strings"
	"unicode/utf8"

	"resultscraper/internal/htmlutil"
	"resultscraper/internal/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"golang.org/x/net/html"
)

const (
	FieldRegisterNumber = "registration number"
	FieldDateOfBirth    = "date of birth"
	FieldSubmit         = "submit button"
)

// Strategy is one way of finding a form control, it returns every
// candidate it matches in document order.
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) []*html.Node
}

type Field struct {
	// Selector is a css path that resolves to Node both on the parsed
	// document and on the live page.
	Selector string
	Strategy string
	Node     *html.Node
}

type FormFields struct {
	Reg    Field
	DOB    Field
	Submit Field
}

func nodes(sel *goquery.Selection) []*html.Node {
	return sel.Nodes
}

func filter(sel *goquery.Selection, pred func(n *html.Node) bool) []*html.Node {
	var out []*html.Node
	for _, n := range sel.Nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	return strings.TrimSpace(htmlutil.Attr(n, key))
}

func inputType(n *html.Node) string {
	return strings.ToLower(attr(n, "type"))
}

func isTextInput(n *html.Node) bool {
	if n.Data != "input" {
		return false
	}
	switch inputType(n) {
	case "", "text", "number", "tel", "search", "date":
		return true
	}
	return false
}

func textInputs(sel *goquery.Selection) []*html.Node {
	return filter(sel.Find("input"), isTextInput)
}

func attrEquals(tag, key, value string) Strategy {
	return Strategy{
		Name: tag + "[" + key + "=" + value + "]",
		Find: func(doc *goquery.Document) []*html.Node {
			return filter(doc.Find(tag), func(n *html.Node) bool {
				return attr(n, key) == value
			})
		},
	}
}

func attrContains(name string, keys []string, tokens ...string) Strategy {
	return Strategy{
		Name: name,
		Find: func(doc *goquery.Document) []*html.Node {
			return filter(doc.Find("input"), func(n *html.Node) bool {
				if !isTextInput(n) {
					return false
				}
				for _, k := range keys {
					if textutil.ContainsAnyFold(attr(n, k), tokens...) {
						return true
					}
				}
				return false
			})
		},
	}
}

func labelText(n *html.Node) string {
	text := strings.ToLower(htmlutil.OwnText(n))
	if text == "" {
		text = strings.ToLower(htmlutil.Normalize(htmlutil.GetText(n)))
	}
	return strings.TrimSpace(strings.Trim(text, ":*. "))
}

func labelMatches(text string, targets []string) bool {
	if text == "" {
		return false
	}
	for _, target := range targets {
		if strings.Contains(text, target) {
			return true
		}
		if matchr.JaroWinkler(text, target, false) >= 0.9 {
			return true
		}
	}
	return false
}

// associatedInputs follows a label to the inputs it most likely describes,
// either through its for attribute or through the surrounding markup.
func associatedInputs(doc *goquery.Document, label *goquery.Selection) []*html.Node {
	var out []*html.Node
	if id := label.AttrOr("for", ""); id != "" {
		out = append(out, filter(doc.Find("input"), func(n *html.Node) bool {
			return isTextInput(n) && attr(n, "id") == id
		})...)
	}
	out = append(out, textInputs(label)...)
	out = append(out, textInputs(label.NextAll())...)
	parent := label.Parent()
	out = append(out, textInputs(parent.NextAll())...)
	out = append(out, textInputs(parent)...)
	return out
}

func labelAssociation(name string, targets ...string) Strategy {
	return Strategy{
		Name: name,
		Find: func(doc *goquery.Document) []*html.Node {
			var out []*html.Node
			doc.Find("label, td, th").Each(func(_ int, label *goquery.Selection) {
				if !labelMatches(labelText(label.Nodes[0]), targets) {
					return
				}
				out = append(out, associatedInputs(doc, label)...)
			})
			return out
		},
	}
}

var regStrategies = []Strategy{
	attrEquals("input", "name", "regno"),
	attrEquals("input", "id", "regno"),
	attrContains("input[name|id|placeholder*=reg]", []string{"name", "id", "placeholder"}, "reg"),
	labelAssociation("label association", "register number", "registration number", "reg no", "reg. no"),
	{
		Name: "first text input",
		Find: func(doc *goquery.Document) []*html.Node {
			return filter(doc.Find("input"), func(n *html.Node) bool {
				t := inputType(n)
				return t == "" || t == "text"
			})
		},
	},
}

// regAttributeTiers is the part of the cascade that only matches on the
// attributes of the control itself.
var regAttributeTiers = regStrategies[:3]

var dobStrategies = []Strategy{
	attrEquals("input", "name", "dob"),
	attrEquals("input", "id", "dob"),
	attrContains("input[placeholder*=date|birth|dob]", []string{"placeholder"}, "date", "birth", "dob"),
	attrContains("input[name|id*=dob|date|birth]", []string{"name", "id"}, "dob", "date", "birth"),
	labelAssociation("label association", "date of birth", "birth date", "dob"),
	{
		Name: "second text input",
		Find: func(doc *goquery.Document) []*html.Node {
			inputs := textInputs(doc.Selection)
			if len(inputs) < 2 {
				return nil
			}
			return inputs[1:]
		},
	},
}

var dobAttributeTiers = dobStrategies[:4]

func inputsWhere(name string, pred func(n *html.Node) bool) Strategy {
	return Strategy{
		Name: name,
		Find: func(doc *goquery.Document) []*html.Node {
			return filter(doc.Find("input"), pred)
		},
	}
}

func buttonsWhere(name string, pred func(n *html.Node) bool) Strategy {
	return Strategy{
		Name: name,
		Find: func(doc *goquery.Document) []*html.Node {
			return filter(doc.Find("button"), pred)
		},
	}
}

func selector(sel string) Strategy {
	return Strategy{
		Name: sel,
		Find: func(doc *goquery.Document) []*html.Node {
			return nodes(doc.Find(sel))
		},
	}
}

func typeIs(types ...string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		t := inputType(n)
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
}

func valueIs(value string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		return attr(n, "value") == value
	}
}

func valueContains(part string) Strategy {
	return inputsWhere("input[value*="+part+"]", func(n *html.Node) bool {
		return strings.Contains(attr(n, "value"), part)
	})
}

func buttonText(text string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		return htmlutil.Normalize(htmlutil.GetText(n)) == text
	}
}

func classIs(class string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		return attr(n, "class") == class
	}
}

var submitStrategies = []Strategy{
	inputsWhere("input[type=submit]", typeIs("submit")),
	buttonsWhere("button[type=submit]", typeIs("submit")),
	inputsWhere("input[value=Submit]", valueIs("Submit")),
	buttonsWhere("button text Submit", buttonText("Submit")),
	inputsWhere("input[value=Get]", valueIs("Get")),
	buttonsWhere("button text Get", buttonText("Get")),
	inputsWhere("input[class=btn]", classIs("btn")),
	buttonsWhere("button[class=btn]", classIs("btn")),
	inputsWhere("input[type=button]", typeIs("button")),
	selector("button"),
	inputsWhere("input[type=image]", typeIs("image")),
	valueContains("ubmit"),
	valueContains("earch"),
	valueContains("ook"),
	valueContains("et"),
	inputsWhere("input[onclick*=submit]", func(n *html.Node) bool {
		return strings.Contains(attr(n, "onclick"), "submit")
	}),
	selector("form button"),
	inputsWhere("form input[type=submit]", func(n *html.Node) bool {
		return typeIs("submit")(n) && insideForm(n)
	}),
	inputsWhere("form input[type=button]", func(n *html.Node) bool {
		return typeIs("button")(n) && insideForm(n)
	}),
	selector(".btn"),
	selector(".button"),
	inputsWhere("short input", func(n *html.Node) bool {
		if typeIs("button", "submit", "image")(n) {
			return true
		}
		if typeIs("hidden")(n) {
			return false
		}
		value := attr(n, "value")
		return value != "" && utf8.RuneCountInString(value) < 15
	}),
	selector("[onclick], [role=button]"),
}

func insideForm(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return true
		}
	}
	return false
}

func excluded(n *html.Node, exclude []*html.Node) bool {
	for _, e := range exclude {
		if n == e {
			return true
		}
	}
	return false
}

// cascade runs the strategies in order and returns the first candidate
// that is not one of the excluded nodes.
func cascade(doc *goquery.Document, strategies []Strategy, exclude ...*html.Node) (Field, bool) {
	for _, s := range strategies {
		for _, n := range s.Find(doc) {
			if excluded(n, exclude) {
				continue
			}
			return Field{
				Selector: htmlutil.CSSPath(n),
				Strategy: s.Name,
				Node:     n,
			}, true
		}
	}
	return Field{}, false
}

// LocateFields finds the register number input, the date of birth input
// and the control that submits them.
func LocateFields(doc *goquery.Document) (FormFields, error) {
	reg, ok := cascade(doc, regStrategies)
	if !ok {
		return FormFields{}, &AttemptError{Kind: KindFieldNotFound, Detail: FieldRegisterNumber}
	}
	dob, ok := cascade(doc, dobStrategies, reg.Node)
	if !ok {
		return FormFields{}, &AttemptError{Kind: KindFieldNotFound, Detail: FieldDateOfBirth}
	}
	submit, ok := cascade(doc, submitStrategies, reg.Node, dob.Node)
	if !ok {
		return FormFields{}, &AttemptError{Kind: KindFieldNotFound, Detail: FieldSubmit}
	}
	return FormFields{Reg: reg, DOB: dob, Submit: submit}, nil
}

// FormStillVisible reports whether the document still looks like the
// query form, meaning a submission did not navigate anywhere.
func FormStillVisible(doc *goquery.Document) bool {
	reg, regOk := cascade(doc, regAttributeTiers)
	dob, dobOk := cascade(doc, dobAttributeTiers)
	if !regOk && !dobOk {
		return false
	}
	_, submitOk := cascade(doc, submitStrategies, reg.Node, dob.Node)
	return submitOk
}
