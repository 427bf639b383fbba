package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// profileMapping keeps identifiers exact-match while names stay full-text
// searchable. Chinese names are additionally indexed per-character so a
// two-character partial still hits.
const profileMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 1
  },
  "mappings": {
    "properties": {
      "poi_id":         {"type": "keyword"},
      "name_english":   {"type": "text"},
      "name_chinese":   {"type": "text", "analyzer": "cjk"},
      "aliases":        {"type": "text"},
      "agent_number":   {"type": "keyword"},
      "license_number": {"type": "keyword"},
      "company":        {"type": "text"},
      "role":           {"type": "keyword"},
      "status":         {"type": "keyword"},
      "total_mentions": {"type": "integer"},
      "first_mentioned_date": {"type": "date"},
      "last_mentioned_date":  {"type": "date"}
    }
  }
}`

// ProfileIndexer mirrors POI profiles into an OpenSearch index keyed by
// POI identifier. Indexing is best-effort from the resolver's point of
// view; postgres remains the source of truth.
type ProfileIndexer struct {
	client    *Client
	indexName string
	logger    logging.Logger
}

func NewProfileIndexer(client *Client, indexPrefix string, log logging.Logger) *ProfileIndexer {
	return &ProfileIndexer{
		client:    client,
		indexName: indexPrefix + "poi-profiles",
		logger:    log,
	}
}

// EnsureIndex creates the profile index when it does not exist yet.
func (i *ProfileIndexer) EnsureIndex(ctx context.Context) error {
	resp, err := i.client.API().Indices.Exists(ctx, opensearchapi.IndicesExistsReq{
		Indices: []string{i.indexName},
	})
	if resp != nil && resp.StatusCode == 200 {
		return nil
	}
	if resp == nil && err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check index existence")
	}

	_, err = i.client.API().Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: i.indexName,
		Body:  strings.NewReader(profileMapping),
	})
	if err != nil {
		// Concurrent creation loses the race but the index is there.
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create index").
			WithDetail(i.indexName)
	}

	i.logger.Info("index created", logging.String("index", i.indexName))
	return nil
}

// IndexProfile upserts the profile document. The POI identifier doubles as
// the document id so repeated writes overwrite in place.
func (i *ProfileIndexer) IndexProfile(ctx context.Context, p *poi.Profile) error {
	if p == nil || p.PoiID == "" {
		return errors.New(errors.ErrCodeValidation, "profile with poi id required")
	}

	doc, err := json.Marshal(p.ToDict())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal profile document")
	}

	_, err = i.client.API().Index(ctx, opensearchapi.IndexReq{
		Index:      i.indexName,
		DocumentID: p.PoiID,
		Body:       bytes.NewReader(doc),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to index profile").
			WithDetail(p.PoiID)
	}

	i.logger.Debug("profile indexed",
		logging.String("index", i.indexName),
		logging.String("poi_id", p.PoiID))
	return nil
}

// DeleteProfile removes a profile document, used when profiles merge away.
func (i *ProfileIndexer) DeleteProfile(ctx context.Context, poiID string) error {
	_, err := i.client.API().Document.Delete(ctx, opensearchapi.DocumentDeleteReq{
		Index:      i.indexName,
		DocumentID: poiID,
	})
	if err != nil {
		if strings.Contains(err.Error(), "not_found") {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete profile document").
			WithDetail(poiID)
	}
	return nil
}
