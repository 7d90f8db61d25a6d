package unom

import (
	"context"
	"fmt"
	"time"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/chrono"
	"resultscraper/internal/htmlutil"
	"resultscraper/internal/textutil"

	"github.com/PuerkitoBio/goquery"
)

// KnownErrors are the phrases the portal uses to reject a query, in the
// order they are checked.
var KnownErrors = []string{
	"Invalid Register Number",
	"Invalid Date of Birth",
	"No Results Found",
	"Record not found",
}

// Outcome is what the page looked like after submitting. A zero Outcome
// means extraction may be attempted, it does not mean the query worked.
type Outcome struct {
	Known string
}

func (o Outcome) Proceed() bool {
	return o.Known == ""
}

// Classify looks for a known error phrase in the rendered text, the raw
// markup and any dialogs the page raised.
func Classify(doc *goquery.Document, markup string, dialogs []string) Outcome {
	haystacks := append([]string{htmlutil.Text(doc.Selection), markup}, dialogs...)
	for _, phrase := range KnownErrors {
		for _, h := range haystacks {
			if textutil.ContainsFold(h, phrase) {
				return Outcome{Known: phrase}
			}
		}
	}
	return Outcome{}
}

// submit fills in the query, clicks the submit control and waits for the
// portal to settle.
func submit(
	ctx context.Context,
	page browser.Page,
	clock chrono.API,
	fields FormFields,
	registerNumber,
	dateOfBirth string,
	settle time.Duration,
) error {
	err := page.Fill(fields.Reg.Selector, registerNumber)
	if err != nil {
		return fmt.Errorf("fill %s: %w", FieldRegisterNumber, err)
	}
	err = page.Fill(fields.DOB.Selector, dateOfBirth)
	if err != nil {
		return fmt.Errorf("fill %s: %w", FieldDateOfBirth, err)
	}
	err = page.Click(ctx, fields.Submit.Selector)
	if err != nil {
		return fmt.Errorf("click %s: %w", FieldSubmit, err)
	}
	return clock.Sleep(ctx, settle)
}
