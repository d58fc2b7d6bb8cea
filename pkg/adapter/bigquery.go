package adapter

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"google.golang.org/api/iterator"
)

// BigQuery provides aggregated embedding usage statistics. The memory
// ingestion pipeline streams usage rows into an analytics table out of
// band; this client only reads the aggregates back for migration
// assessment.
type BigQuery interface {
	// ModelUsage returns per-model usage aggregates for the given
	// embedding model names. Models with no recorded usage are absent
	// from the returned map.
	ModelUsage(ctx context.Context, models ...string) (map[string]model.ModelUsage, error)
}

type bigqueryClient struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// BigQueryOption is a functional option for BigQuery client
type BigQueryOption func(*bigqueryClient)

// WithBigQueryTable overrides the dataset and table holding usage rows
func WithBigQueryTable(dataset, table string) BigQueryOption {
	return func(bq *bigqueryClient) {
		bq.dataset = dataset
		bq.table = table
	}
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string, opts ...BigQueryOption) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	bq := &bigqueryClient{
		client:  client,
		dataset: "burrow",
		table:   "embedding_usage",
	}

	for _, opt := range opts {
		opt(bq)
	}

	return bq, nil
}

type usageRow struct {
	Model     string    `bigquery:"embedding_model"`
	Count     int64     `bigquery:"usage_count"`
	FirstUsed time.Time `bigquery:"first_used"`
	LastUsed  time.Time `bigquery:"last_used"`
}

func (bq *bigqueryClient) ModelUsage(ctx context.Context, models ...string) (map[string]model.ModelUsage, error) {
	query := fmt.Sprintf(`
		SELECT
			embedding_model,
			COUNT(*) AS usage_count,
			MIN(created_at) AS first_used,
			MAX(created_at) AS last_used
		FROM `+"`%s.%s`"+`
		WHERE embedding_model IN UNNEST(@models)
		GROUP BY embedding_model
	`, bq.dataset, bq.table)

	q := bq.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "models", Value: models},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query embedding usage",
			goerr.Value("dataset", bq.dataset),
			goerr.Value("table", bq.table),
		)
	}

	usage := make(map[string]model.ModelUsage)
	for {
		var row usageRow
		if err := it.Next(&row); err == iterator.Done {
			break
		} else if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate usage rows")
		}

		usage[row.Model] = model.ModelUsage{
			Model:     row.Model,
			Count:     row.Count,
			FirstUsed: row.FirstUsed,
			LastUsed:  row.LastUsed,
		}
	}

	return usage, nil
}
