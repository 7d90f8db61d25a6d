package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"resultscraper/internal/components/telemetry"
	"resultscraper/internal/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

var ErrNoDocument = errors.New("no page has been loaded")

// httpPage emulates the handful of browser interactions a plain html form
// needs: filling inputs and submitting the form that encloses a control.
type httpPage struct {
	client *resty.Client
	tel    telemetry.API

	location *url.URL
	raw      string
	doc      *goquery.Document
	filled   map[*html.Node]string
}

func openHttp(opts Options, tel telemetry.API) (*httpPage, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(opts.Timeout)

	// the portal is old and slow, 2 requests a second is plenty
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)

	return &httpPage{
		client: client,
		tel:    tel,
		filled: map[*html.Node]string{},
	}, nil
}

func (p *httpPage) load(res *resty.Response) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("parse %s: %w", res.Request.URL, err)
	}
	p.doc = doc
	p.raw = string(res.Body())
	p.filled = map[*html.Node]string{}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		p.location = res.RawResponse.Request.URL
	}
	return nil
}

func (p *httpPage) Goto(ctx context.Context, target string) error {
	location, err := url.Parse(target)
	if err != nil {
		return err
	}
	res, err := p.client.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return err
	}
	p.location = location
	return p.load(res)
}

func (p *httpPage) Content() (string, error) {
	if p.doc == nil {
		return "", ErrNoDocument
	}
	return p.raw, nil
}

func (p *httpPage) find(selector string) (*goquery.Selection, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return sel, nil
}

func (p *httpPage) Fill(selector, value string) error {
	sel, err := p.find(selector)
	if err != nil {
		return err
	}
	p.filled[sel.Nodes[0]] = value
	return nil
}

func (p *httpPage) Click(ctx context.Context, selector string) error {
	control, err := p.find(selector)
	if err != nil {
		return err
	}
	form := control.Closest("form")
	if form.Length() == 0 {
		return fmt.Errorf("%q is not inside a form, it cannot be clicked without javascript", selector)
	}

	values := p.formValues(form, control.Nodes[0])

	action := p.location
	if raw, ok := form.Attr("action"); ok && strings.TrimSpace(raw) != "" {
		action, err = p.location.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("resolve form action: %w", err)
		}
	}
	if action == nil {
		return ErrNoDocument
	}

	req := p.client.R().SetContext(ctx)
	var res *resty.Response
	if strings.EqualFold(form.AttrOr("method", "get"), "post") {
		res, err = req.SetFormDataFromValues(values).Post(action.String())
	} else {
		target := *action
		target.RawQuery = values.Encode()
		res, err = req.Get(target.String())
	}
	if err != nil {
		return err
	}
	return p.load(res)
}

func (p *httpPage) formValues(form *goquery.Selection, clicked *html.Node) url.Values {
	values := url.Values{}
	form.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		node := field.Nodes[0]
		name := htmlutil.Attr(node, "name")
		if name == "" || htmlutil.HasAttr(node, "disabled") {
			return
		}

		switch node.Data {
		case "textarea":
			values.Add(name, p.valueOr(node, field.Text()))
			return
		case "select":
			option := field.Find("option[selected]").First()
			if option.Length() == 0 {
				option = field.Find("option").First()
			}
			if option.Length() > 0 {
				values.Add(name, option.AttrOr("value", htmlutil.Text(option)))
			}
			return
		}

		switch strings.ToLower(htmlutil.Attr(node, "type")) {
		case "submit", "button", "image", "reset":
			if node == clicked {
				values.Add(name, htmlutil.Attr(node, "value"))
			}
		case "checkbox", "radio":
			if htmlutil.HasAttr(node, "checked") {
				values.Add(name, field.AttrOr("value", "on"))
			}
		default:
			values.Add(name, p.valueOr(node, htmlutil.Attr(node, "value")))
		}
	})
	return values
}

func (p *httpPage) valueOr(node *html.Node, fallback string) string {
	if v, ok := p.filled[node]; ok {
		return v
	}
	return fallback
}

func (p *httpPage) Screenshot(string) error {
	return ErrScreenshotUnsupported
}

func (p *httpPage) Dialogs() []string {
	return nil
}

func (p *httpPage) Close() error {
	p.client.GetClient().CloseIdleConnections()
	return nil
}
