package unom

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed ugresult_form_test.html
var ugresultFormTest []byte

//go:embed labelled_form_test.html
var labelledFormTest []byte

func parse(t testing.TB, markup []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func requireResolves(t testing.TB, doc *goquery.Document, field Field) {
	found := doc.Find(field.Selector)
	require.Equal(t, 1, found.Length(), field.Selector)
	require.Same(t, field.Node, found.Nodes[0], field.Selector)
}

func TestLocatePortalForm(t *testing.T) {
	doc := parse(t, ugresultFormTest)
	fields, err := LocateFields(doc)
	require.NoError(t, err)

	require.Equal(t, "input[name=regno]", fields.Reg.Strategy)
	require.Equal(t, "input[name=dob]", fields.DOB.Strategy)
	require.Equal(t, "input[type=submit]", fields.Submit.Strategy)
	require.Equal(t, "Submit", doc.FindNodes(fields.Submit.Node).AttrOr("value", ""))

	requireResolves(t, doc, fields.Reg)
	requireResolves(t, doc, fields.DOB)
	requireResolves(t, doc, fields.Submit)
}

func TestLocateByLabels(t *testing.T) {
	doc := parse(t, labelledFormTest)
	fields, err := LocateFields(doc)
	require.NoError(t, err)

	require.Equal(t, "label association", fields.Reg.Strategy)
	require.Equal(t, "r1", doc.FindNodes(fields.Reg.Node).AttrOr("id", ""))
	require.Equal(t, "label association", fields.DOB.Strategy)
	require.Equal(t, "dd/mm/yyyy", doc.FindNodes(fields.DOB.Node).AttrOr("placeholder", ""))
	require.Equal(t, "button text Get", fields.Submit.Strategy)

	requireResolves(t, doc, fields.Reg)
	requireResolves(t, doc, fields.DOB)
	requireResolves(t, doc, fields.Submit)
}

func TestLocateFallbacks(t *testing.T) {
	testCases := []struct {
		name           string
		markup         string
		regStrategy    string
		dobStrategy    string
		submitStrategy string
	}{
		{
			name: "positional",
			markup: `<form>
				<input type="text" name="a">
				<input type="text" name="b">
				<input type="button" value="Go">
			</form>`,
			regStrategy:    "first text input",
			dobStrategy:    "second text input",
			submitStrategy: "input[type=button]",
		},
		{
			name: "partial attributes",
			markup: `<form>
				<input type="hidden" name="session" value="x1">
				<input type="text" id="txtRegNo">
				<input type="text" name="birthdate">
				<input type="text" name="code" value="Get Result">
			</form>`,
			regStrategy:    "input[name|id|placeholder*=reg]",
			dobStrategy:    "input[name|id*=dob|date|birth]",
			submitStrategy: "input[value*=et]",
		},
		{
			name: "table labels and clickable link",
			markup: `<table>
				<tr><td>Reg. No</td><td><input type="text" name="f1"></td></tr>
				<tr><td>Birth Date</td><td><input type="text" name="f2"></td></tr>
			</table>
			<a onclick="document.forms[0].submit()">View</a>`,
			regStrategy:    "label association",
			dobStrategy:    "label association",
			submitStrategy: "[onclick], [role=button]",
		},
		{
			name: "placeholder and short value",
			markup: `<form>
				<input type="text" name="regno">
				<input type="text" name="x" placeholder="Date (DD/MM/YYYY)">
				<input type="text" name="y" value="OK">
			</form>`,
			regStrategy:    "input[name=regno]",
			dobStrategy:    "input[placeholder*=date|birth|dob]",
			submitStrategy: "short input",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc := parse(t, []byte(test.markup))
			fields, err := LocateFields(doc)
			require.NoError(t, err)
			require.Equal(t, test.regStrategy, fields.Reg.Strategy)
			require.Equal(t, test.dobStrategy, fields.DOB.Strategy)
			require.Equal(t, test.submitStrategy, fields.Submit.Strategy)
			require.NotSame(t, fields.Reg.Node, fields.DOB.Node)
			require.NotSame(t, fields.Submit.Node, fields.Reg.Node)
			require.NotSame(t, fields.Submit.Node, fields.DOB.Node)
		})
	}
}

func TestLocateFailures(t *testing.T) {
	testCases := []struct {
		markup string
		detail string
	}{
		{markup: `<p>Site under maintenance</p>`, detail: FieldRegisterNumber},
		{markup: `<input type="text" name="regno">`, detail: FieldDateOfBirth},
		{markup: `<input type="text" name="regno"><input type="text" name="dob">`, detail: FieldSubmit},
	}

	for _, test := range testCases {
		_, err := LocateFields(parse(t, []byte(test.markup)))

		var attemptErr *AttemptError
		require.True(t, errors.As(err, &attemptErr), test.markup)
		require.Equal(t, KindFieldNotFound, attemptErr.Kind)
		require.Equal(t, test.detail, attemptErr.Detail)
		require.True(t, isTransient(err))
	}
}

func TestFormStillVisible(t *testing.T) {
	require.True(t, FormStillVisible(parse(t, ugresultFormTest)))
	require.False(t, FormStillVisible(parse(t, ugresultResultTest)))
	require.False(t, FormStillVisible(parse(t, []byte(strings.Repeat("<p>nothing here</p>", 3)))))
}
