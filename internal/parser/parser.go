// Package parser extracts exposure-site records from the listing page HTML.
package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/record"
)

// DefaultTableSelector anchors the exposure table on the listing page.
const DefaultTableSelector = "#table_1"

// cellsPerRow is the number of cells a row needs: date, time, campus,
// location, contact status.
const cellsPerRow = 5

// Options configures a Parser.
type Options struct {
	// TableSelector is a CSS selector for the anchor table.
	TableSelector string
	Logger        logger.Logger
}

// Result holds the outcome of a successful parse.
type Result struct {
	// Records in table order. Duplicates are kept.
	Records []record.Record
	// RowErrors lists the rows that were skipped.
	RowErrors []RowError
}

// Parser turns listing page HTML into records.
type Parser struct {
	selector string
	log      logger.Logger
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.TableSelector == "" {
		opts.TableSelector = DefaultTableSelector
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Parser{
		selector: opts.TableSelector,
		log:      opts.Logger.With(logger.Component("parser")),
	}
}

// ParseString parses an HTML document held in a string.
func (p *Parser) ParseString(ctx context.Context, body string) (*Result, error) {
	return p.Parse(ctx, strings.NewReader(body))
}

// Parse reads an HTML document and extracts one record per table body row.
// Malformed rows are skipped and reported in Result.RowErrors; only a
// missing table or body is an error.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Selector: p.selector, Message: "failed to read HTML", Cause: err}
	}

	table := doc.Find(p.selector).First()
	if table.Length() == 0 {
		return nil, &ParseError{Selector: p.selector, Message: "no element matches selector", Cause: ErrTableNotFound}
	}

	// Rows are matched anywhere below the first tbody, so wrapper elements
	// and rows of tables nested inside cells are included.
	body := table.Find("tbody").First()
	if body.Length() == 0 {
		return nil, &ParseError{Selector: p.selector, Message: "table has no tbody", Cause: ErrTableNotFound}
	}

	rows := body.Find("tr")
	result := &Result{
		Records: make([]record.Record, 0, rows.Length()),
	}

	rows.Each(func(i int, row *goquery.Selection) {
		rec, rowErr := parseRow(i, row)
		if rowErr != nil {
			p.log.Warn("Error parsing row",
				logger.Int("row", rowErr.Index),
				logger.Strings("cells", rowErr.Cells),
				logger.String("reason", rowErr.Reason),
			)
			result.RowErrors = append(result.RowErrors, *rowErr)
			return
		}
		result.Records = append(result.Records, rec)
	})

	p.log.Debug("Parsed exposure table",
		logger.Int("records", len(result.Records)),
		logger.Int("row_errors", len(result.RowErrors)),
	)

	return result, nil
}

// parseRow reads the first five cells of a row.
func parseRow(index int, row *goquery.Selection) (record.Record, *RowError) {
	cells := row.ChildrenFiltered("td, th")

	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})

	if len(texts) < cellsPerRow {
		return record.Record{}, &RowError{
			Index:  index,
			Cells:  texts,
			Reason: fmt.Sprintf("expected %d cells, found %d", cellsPerRow, len(texts)),
		}
	}

	return record.New(texts[0], texts[1], texts[2], texts[3], texts[4]), nil
}
