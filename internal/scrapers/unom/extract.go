package unom

import (
	"strings"
	"unicode/utf8"

	"resultscraper/internal/htmlutil"
	"resultscraper/internal/results"
	"resultscraper/internal/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const NameExtractionFailed = "Name extraction failed"

// maxSubjectCodeLength separates short subject codes from prose in the
// first cell of a row.
const maxSubjectCodeLength = 15

// institutionTokens are normalized, see textutil.MatchName.
var institutionTokens = []string{"university", "madras", "institution", "college"}

func validName(text string) bool {
	return text != "" &&
		utf8.RuneCountInString(text) > 3 &&
		!textutil.MatchName(text, institutionTokens)
}

func ownTextContains(tokens ...string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		return textutil.ContainsAnyFold(htmlutil.OwnText(n), tokens...)
	}
}

func nodeText(n *html.Node) string {
	return htmlutil.Normalize(htmlutil.GetText(n))
}

// structuralNameCandidates yields the cells that sit next to something
// labelled as the name, in the order they should be tried.
func structuralNameCandidates(doc *goquery.Document) [][]*html.Node {
	followingCells := func(tags string, pred func(n *html.Node) bool) []*html.Node {
		var out []*html.Node
		doc.Find(tags).Each(func(_ int, sel *goquery.Selection) {
			if pred(sel.Nodes[0]) {
				out = append(out, sel.NextAllFiltered("td").Nodes...)
			}
		})
		return out
	}
	followingSiblings := func(tags string, pred func(n *html.Node) bool) []*html.Node {
		var out []*html.Node
		doc.Find(tags).Each(func(_ int, sel *goquery.Selection) {
			if pred(sel.Nodes[0]) {
				out = append(out, sel.NextAll().Nodes...)
			}
		})
		return out
	}
	nameRows := func() []*html.Node {
		var out []*html.Node
		doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if !textutil.ContainsFold(htmlutil.Text(row), "name") {
				return
			}
			cells := row.ChildrenFiltered("td")
			if cells.Length() >= 2 {
				out = append(out, cells.Nodes[1])
			}
		})
		return out
	}

	isName := ownTextContains("name")
	return [][]*html.Node{
		followingCells("td", isName),
		followingCells("th", isName),
		nameRows(),
		followingSiblings("label", isName),
		followingSiblings("div", isName),
		followingCells("td", ownTextContains("candidate")),
	}
}

func tableNameCandidates(doc *goquery.Document) []*html.Node {
	var out []*html.Node
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		first := htmlutil.Text(cells.First())
		if textutil.ContainsAnyFold(first, "name", "student", "candidate") {
			out = append(out, cells.Nodes[1])
		}
	})
	return out
}

// ExtractName finds the student name on a results page, it falls back to
// NameExtractionFailed rather than failing the whole result.
func ExtractName(doc *goquery.Document) string {
	for _, candidates := range structuralNameCandidates(doc) {
		for _, n := range candidates {
			if text := nodeText(n); validName(text) {
				return text
			}
		}
	}

	for _, n := range tableNameCandidates(doc) {
		if text := nodeText(n); validName(text) {
			return text
		}
	}

	for _, n := range doc.Find("b, strong").Nodes {
		text := nodeText(n)
		if validName(text) &&
			!strings.Contains(text, ":") &&
			strings.ToUpper(text) != text {
			return text
		}
	}

	return NameExtractionFailed
}

// ExtractSubjects reads every table row that starts with a subject code,
// the cells after the subject name are stored by their offset since the
// page does not say what each of them means.
func ExtractSubjects(doc *goquery.Document) map[string]string {
	subjects := map[string]string{}
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			return
		}
		code := htmlutil.Text(cells.First())
		if code == "" || utf8.RuneCountInString(code) > maxSubjectCodeLength {
			return
		}
		cells.Slice(2, cells.Length()).Each(func(i int, cell *goquery.Selection) {
			subjects[results.SubjectKey(code, i)] = htmlutil.Text(cell)
		})
	})
	return subjects
}

// Extract turns a results page into a successful result. A page without
// any subject rows is a transient failure when the query form is still
// showing and a terminal one otherwise.
func Extract(doc *goquery.Document, registerNumber, dateOfBirth string) (results.Result, error) {
	subjects := ExtractSubjects(doc)
	if len(subjects) == 0 {
		if FormStillVisible(doc) {
			return nil, &AttemptError{Kind: KindFormStillVisible}
		}
		return nil, &AttemptError{Kind: KindExtractionEmpty}
	}

	result := results.Result{
		results.KeyRegisterNumber: registerNumber,
		results.KeyDateOfBirth:    dateOfBirth,
		results.KeyStudentName:    ExtractName(doc),
	}
	for k, v := range subjects {
		result[k] = v
	}
	return result, nil
}
