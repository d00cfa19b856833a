package registry

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
)

const (
	opParse      = "registry.parse"
	minColumns   = 4
	maxBodyBytes = 8 << 20

	// Decoding a single-byte charset to UTF-8 at most doubles the size.
	maxDocumentBytes = 2 * maxBodyBytes
)

var firstIntRe = regexp.MustCompile(`\d+`)

// errTooLarge rejects bodies that would otherwise be parsed truncated.
var errTooLarge = errors.New("response body too large")

// Selectors locate the parts of a registry results page.
type Selectors struct {
	Captcha    string `yaml:"captcha"`
	ClassLabel string `yaml:"class_label"`
	Summary    string `yaml:"summary"`
	Rows       string `yaml:"rows"`
}

// DefaultSelectors matches the registry's current markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Captcha:    `form[name="captcha"]`,
		ClassLabel: ".classe-nice",
		Summary:    ".resultado-busca",
		Rows:       ".tabela-processo tr",
	}
}

// Page is what the parser extracts from one response body.
type Page struct {
	Captcha    bool
	Candidates []models.CandidateMark
	TotalCount int
	ClassLabel string
}

// Parser turns a response body into a Page.
type Parser interface {
	Parse(r io.Reader) (*Page, error)
}

// HTMLParser reads registry pages with CSS selectors.
type HTMLParser struct {
	sel Selectors
}

// NewHTMLParser returns a parser using sel.
func NewHTMLParser(sel Selectors) *HTMLParser {
	return &HTMLParser{sel: sel}
}

// Parse reads an HTML document. A CAPTCHA page is reported through
// Page.Captcha, not as an error; only an empty or unreadable body fails.
func (p *HTMLParser) Parse(r io.Reader) (*Page, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, apperr.New(apperr.ErrParse, opParse, err)
	}
	if len(body) > maxDocumentBytes {
		return nil, apperr.New(apperr.ErrParse, opParse, errTooLarge)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperr.New(apperr.ErrParse, opParse, errors.New("empty response body"))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.ErrParse, opParse, err)
	}

	if doc.Find(p.sel.Captcha).Length() > 0 {
		return &Page{Captcha: true}, nil
	}

	page := &Page{
		Candidates: ParseRows(doc.Find(p.sel.Rows)),
		ClassLabel: strings.TrimSpace(doc.Find(p.sel.ClassLabel).First().Text()),
	}
	if summary := doc.Find(p.sel.Summary).First(); summary.Length() > 0 {
		if m := firstIntRe.FindString(summary.Text()); m != "" {
			page.TotalCount, _ = strconv.Atoi(m)
		}
	}
	return page, nil
}

// ParseRows converts result-table rows into candidates. The first row is
// the header; rows with fewer than four cells are dropped.
func ParseRows(rows *goquery.Selection) []models.CandidateMark {
	out := []models.CandidateMark{}
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < minColumns {
			return
		}
		cell := func(n int) string { return strings.TrimSpace(cells.Eq(n).Text()) }

		markType := cell(4)
		if markType == "" {
			markType = models.UnspecifiedMarkType
		}
		out = append(out, models.CandidateMark{
			RegistryID: cell(0),
			Name:       cell(1),
			Status:     cell(2),
			Owner:      cell(3),
			MarkType:   markType,
		})
	})
	return out
}
