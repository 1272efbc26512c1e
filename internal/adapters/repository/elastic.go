package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

// Elastic is a Store backed by an Elasticsearch cluster.
type Elastic struct {
	client  *elasticsearch.Client
	refresh string
	logger  logger.Logger
}

// NewElastic connects to Elasticsearch and checks the cluster answers.
// An unreachable cluster is reported as ErrUnavailable.
func NewElastic(ctx context.Context, opts ...Option) (*Elastic, error) {
	o := apply("elastic", opts)
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: o.addresses,
		Username:  o.username,
		Password:  o.password,
		Transport: o.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	e := &Elastic{client: client, refresh: o.refresh, logger: o.logger}

	res, err := esapi.InfoRequest{}.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer closeBody(ctx, e.logger, res)
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
	}
	e.logger.Info(ctx, "connected to elasticsearch", logger.Any("addresses", o.addresses))
	return e, nil
}

func (e *Elastic) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, e.client)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", index, err)
	}
	defer closeBody(ctx, e.logger, res)
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: index exists %s: %s", ErrResponse, index, res.Status())
	}
}

func (e *Elastic) CreateIndex(ctx context.Context, index string, mapping []byte) error {
	req := esapi.IndicesCreateRequest{Index: index}
	if len(mapping) > 0 {
		req.Body = bytes.NewReader(mapping)
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer closeBody(ctx, e.logger, res)
	if !res.IsError() {
		e.logger.Info(ctx, "index created", logger.String("index", index))
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
		return nil
	}
	return fmt.Errorf("%w: create index %s: %s %s", ErrResponse, index, res.Status(), body)
}

type bulkItem struct {
	Status int `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

func (e *Elastic) Bulk(ctx context.Context, index string, docs []any) (BulkResult, error) {
	var result BulkResult
	var body bytes.Buffer
	meta := []byte(`{"index":{}}` + "\n")
	sent := 0
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			result.fail(err.Error())
			continue
		}
		body.Write(meta)
		body.Write(raw)
		body.WriteByte('\n')
		sent++
	}
	if sent == 0 {
		return result, nil
	}

	res, err := esapi.BulkRequest{Index: index, Body: &body, Refresh: e.refresh}.Do(ctx, e.client)
	if err != nil {
		return result, fmt.Errorf("bulk %s: %w", index, err)
	}
	defer closeBody(ctx, e.logger, res)
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return result, fmt.Errorf("%w: bulk %s: %s %s", ErrResponse, index, res.Status(), msg)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return result, fmt.Errorf("%w: decode bulk response: %v", ErrResponse, err)
	}
	for _, item := range br.Items {
		for _, it := range item {
			if it.Error != nil || it.Status >= 300 {
				reason := fmt.Sprintf("status %d", it.Status)
				if it.Error != nil {
					reason = it.Error.Type + ": " + it.Error.Reason
				}
				result.fail(reason)
				continue
			}
			result.Indexed++
		}
	}
	return result, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elastic) Sample(ctx context.Context, index string) (map[string]any, error) {
	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(`{"size":1,"query":{"match_all":{}}}`),
	}.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", index, err)
	}
	defer closeBody(ctx, e.logger, res)
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: sample %s: %s", ErrResponse, index, res.Status())
	}
	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrResponse, err)
	}
	if len(sr.Hits.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, index)
	}
	return decodeDocument(bytes.NewReader(sr.Hits.Hits[0].Source))
}

func (e *Elastic) Count(ctx context.Context, index string, conds []model.Condition) (int64, error) {
	query, err := json.Marshal(map[string]any{"query": esQuery(conds)})
	if err != nil {
		return 0, err
	}
	res, err := esapi.CountRequest{Index: []string{index}, Body: bytes.NewReader(query)}.Do(ctx, e.client)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	defer closeBody(ctx, e.logger, res)
	if res.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", ErrIndexNotFound, index)
	}
	if res.IsError() {
		return 0, fmt.Errorf("%w: count %s: %s", ErrResponse, index, res.Status())
	}
	var cr struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("%w: decode count response: %v", ErrResponse, err)
	}
	return cr.Count, nil
}

// Close is a no-op; the client holds no resources beyond its transport.
func (e *Elastic) Close() error { return nil }

// esQuery translates conditions into a bool filter.
func esQuery(conds []model.Condition) map[string]any {
	if len(conds) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	filters := make([]any, 0, len(conds))
	for _, c := range conds {
		switch c.Op {
		case model.OpContainsDay:
			day := c.Day()
			filters = append(filters, map[string]any{
				"range": map[string]any{c.Field: map[string]any{"gte": day + "||/d", "lte": day + "||/d"}},
			})
		default:
			filters = append(filters, map[string]any{
				"term": map[string]any{c.Field: c.Value},
			})
		}
	}
	return map[string]any{"bool": map[string]any{"filter": filters}}
}

func closeBody(ctx context.Context, l logger.Logger, res *esapi.Response) {
	if err := res.Body.Close(); err != nil {
		l.Warn(ctx, "failed to close response body", logger.Error(err))
	}
}
