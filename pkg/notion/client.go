// Package notion publishes report summaries to a Notion database.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ReportCard is the flattened summary published per batch.
type ReportCard struct {
	BatchID       string
	Location      string
	Verdict       string
	Confidence    string
	GrossValueUSD float64
	TotalCostUSD  float64
	NetProfitUSD  float64
	GeneratedAt   time.Time
}

// Client publishes report cards.
type Client interface {
	PublishReport(ctx context.Context, databaseID string, card ReportCard) (string, error)
}

type apiClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a Notion client. The API allows ~3 requests/second.
func NewClient(token string) Client {
	return &apiClient{
		api:     notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(rate.Limit(3), 1),
	}
}

// PublishReport creates one database page per report and returns its URL.
func (c *apiClient) PublishReport(ctx context.Context, databaseID string, card ReportCard) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "notion: rate limit wait")
	}

	title := fmt.Sprintf("Batch %s — %s", card.BatchID, card.Verdict)
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Text: &notionapi.Text{Content: title}},
				},
			},
			"Batch ID": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{Text: &notionapi.Text{Content: card.BatchID}},
				},
			},
			"Location": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{Text: &notionapi.Text{Content: card.Location}},
				},
			},
			"Verdict": notionapi.SelectProperty{
				Select: notionapi.Option{Name: card.Verdict},
			},
			"Confidence": notionapi.SelectProperty{
				Select: notionapi.Option{Name: card.Confidence},
			},
			"Gross Value (USD)": notionapi.NumberProperty{Number: card.GrossValueUSD},
			"Total Cost (USD)":  notionapi.NumberProperty{Number: card.TotalCostUSD},
			"Net Profit (USD)":  notionapi.NumberProperty{Number: card.NetProfitUSD},
			"Generated At": notionapi.DateProperty{
				Date: &notionapi.DateObject{
					Start: (*notionapi.Date)(&card.GeneratedAt),
				},
			},
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: create page for batch %s", card.BatchID)
	}

	zap.L().Info("notion: report published",
		zap.String("batch_id", card.BatchID),
		zap.String("page_id", string(page.ID)),
	)
	return page.URL, nil
}
