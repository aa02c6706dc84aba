package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

// page is the subset of a Notion page we read.
type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type     string     `json:"type"`
	Title    []richText `json:"title"`
	RichText []richText `json:"rich_text"`
	Select   *selectOpt `json:"select"`
	URL      *string    `json:"url"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectOpt struct {
	Name string `json:"name"`
}

type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// FindReady queries the case database for records in Ready for Download that
// have at least one link field filled in. A positive limit caps the batch at
// one API page of that size; 0 means unbounded, following the cursor through
// every page.
func (c *Client) FindReady(ctx context.Context, limit int) ([]*caserecord.CaseRecord, error) {
	// the three link slots are url-typed properties, the multi field is rich
	// text; the condition object must match the property type or the API
	// rejects the whole filter
	filter := map[string]any{
		"and": []any{
			map[string]any{
				"property": propStatus,
				"select":   map[string]any{"equals": string(caserecord.StatusReady)},
			},
			map[string]any{
				"or": []any{
					urlNotEmpty(propLink1),
					urlNotEmpty(propLink2),
					urlNotEmpty(propLink3),
					richTextNotEmpty(propLinksMulti),
				},
			},
		},
	}

	path := "/v1/databases/" + c.databaseID + "/query"
	var records []*caserecord.CaseRecord
	cursor := ""

	for {
		payload := map[string]any{"filter": filter}
		if limit > 0 {
			payload["page_size"] = limit
		}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}

		for _, pg := range resp.Results {
			rec := toCaseRecord(pg)
			if rec.Links.Empty() {
				// filter said a link field is non-empty, but all tokens may
				// still be whitespace; skip rather than claim a no-op case
				if c.logger != nil {
					c.logger.Warn(ctx, "skipping ready case with no usable links", observability.Fields{
						"page_id": rec.PageID,
					})
				}
				continue
			}
			records = append(records, rec)
			if limit > 0 && len(records) >= limit {
				return records, nil
			}
		}

		if limit > 0 || !resp.HasMore || resp.NextCursor == nil {
			return records, nil
		}
		cursor = *resp.NextCursor
	}
}

func urlNotEmpty(prop string) map[string]any {
	return map[string]any{
		"property": prop,
		"url":      map[string]any{"is_not_empty": true},
	}
}

func richTextNotEmpty(prop string) map[string]any {
	return map[string]any{
		"property":  prop,
		"rich_text": map[string]any{"is_not_empty": true},
	}
}

// toCaseRecord maps a raw page into the domain record.
func toCaseRecord(pg page) *caserecord.CaseRecord {
	slots := []linkset.Link{
		{URL: plainText(pg, propLink1), Slot: "link_1"},
		{URL: plainText(pg, propLink2), Slot: "link_2"},
		{URL: plainText(pg, propLink3), Slot: "link_3"},
	}

	return &caserecord.CaseRecord{
		PageID:      pg.ID,
		SuspectName: suspectName(pg),
		Links:       linkset.Build(slots, plainText(pg, propLinksMulti)),
		Credentials: plainText(pg, propLogin),
		Status:      selectValue(pg, propStatus),
	}
}

// suspectName takes the first line of the Suspect field, falling back to the
// page title when Suspect is a title property or empty.
func suspectName(pg page) string {
	prop, ok := pg.Properties[propSuspect]
	if !ok {
		return ""
	}
	text := joinPlainText(prop.RichText)
	if text == "" {
		text = joinPlainText(prop.Title)
	}
	if text == "" {
		for _, p := range pg.Properties {
			if p.Type == "title" {
				text = joinPlainText(p.Title)
				break
			}
		}
	}
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}

func plainText(pg page, name string) string {
	prop, ok := pg.Properties[name]
	if !ok {
		return ""
	}
	if prop.URL != nil {
		return strings.TrimSpace(*prop.URL)
	}
	return strings.TrimSpace(joinPlainText(prop.RichText))
}

func joinPlainText(parts []richText) string {
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.PlainText)
	}
	return b.String()
}

func selectValue(pg page, name string) caserecord.Status {
	prop, ok := pg.Properties[name]
	if !ok || prop.Select == nil {
		return ""
	}
	return caserecord.Status(prop.Select.Name)
}
