// Package elasticsource searches an Elasticsearch index of curated places,
// such as pantries reported by community organizations that are not mapped
// in OpenStreetMap.
package elasticsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/olivere/elastic/v7"
	"github.com/pantrymap/go-pantrymap/model"
)

var log = logging.Logger("elasticsource")

// SourceName is recorded as the Source of every place from an index.
const SourceName = "community"

// indexMapping maps the location field as a geo point so that it can be
// searched by distance.
const indexMapping = `{
  "mappings": {
    "properties": {
      "place_id":      {"type": "keyword"},
      "name":          {"type": "text"},
      "category":      {"type": "keyword"},
      "location":      {"type": "geo_point"},
      "opening_hours": {"type": "keyword"}
    }
  }
}`

// Document is the stored form of a place.
type Document struct {
	PlaceID      string           `json:"place_id,omitempty"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Address      *model.Address   `json:"address,omitempty"`
	Location     elastic.GeoPoint `json:"location"`
	OpeningHours []string         `json:"opening_hours,omitempty"`
}

// Source is a place source backed by an Elasticsearch index.
type Source struct {
	client *elastic.Client
	index  string
	size   int
}

// NewClient creates an Elasticsearch client for a single node at url.
// Sniffing and health checks are disabled, since the node is usually behind
// a proxy or load balancer.
func NewClient(url string) (*elastic.Client, error) {
	return elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false))
}

// New creates a Source that searches the configured index using client.
func New(client *elastic.Client, options ...Option) (*Source, error) {
	if client == nil {
		return nil, errors.New("nil elasticsearch client")
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Source{
		client: client,
		index:  opts.index,
		size:   opts.size,
	}, nil
}

// FetchPlaces returns the indexed places within radiusMeters of the center,
// nearest first. Documents that cannot be decoded are skipped.
func (s *Source) FetchPlaces(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Place, error) {
	query := elastic.NewBoolQuery().Filter(
		elastic.NewGeoDistanceQuery("location").
			Lat(lat).
			Lon(lon).
			Distance(fmt.Sprintf("%.0fm", radiusMeters)))

	result, err := s.client.Search().
		Index(s.index).
		Query(query).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(lat, lon).
			Asc().
			Unit("m").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(s.size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot search index %s: %w", s.index, err)
	}
	if result.Hits == nil {
		return []model.Place{}, nil
	}

	places := make([]model.Place, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc Document
		if err = json.Unmarshal(hit.Source, &doc); err != nil {
			log.Warnw("Cannot decode place document", "err", err, "id", hit.Id)
			continue
		}
		places = append(places, doc.toPlace(hit.Id))
	}
	log.Debugw("Fetched places", "count", len(places), "index", s.index)
	return places, nil
}

// EnsureIndex creates the index with a geo point mapping if it does not
// already exist.
func (s *Source) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("cannot check index %s: %w", s.index, err)
	}
	if exists {
		return nil
	}
	created, err := s.client.CreateIndex(s.index).BodyString(indexMapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("cannot create index %s: %w", s.index, err)
	}
	if !created.Acknowledged {
		log.Warnw("Index creation was not acknowledged", "index", s.index)
	}
	log.Infow("Created index", "index", s.index)
	return nil
}

// Index stores places in the index, replacing documents with the same place
// ID. Failures of individual documents are combined into the returned
// error.
func (s *Source) Index(ctx context.Context, places []model.Place) error {
	if len(places) == 0 {
		return nil
	}
	bulk := s.client.Bulk()
	for _, p := range places {
		bulk.Add(elastic.NewBulkIndexRequest().
			Index(s.index).
			Id(p.ID).
			Doc(fromPlace(p)))
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("cannot index places: %w", err)
	}

	var errs error
	for _, item := range resp.Failed() {
		reason := "unknown"
		if item.Error != nil {
			reason = item.Error.Reason
		}
		errs = multierror.Append(errs, fmt.Errorf("place %s: %s", item.Id, reason))
	}
	log.Infow("Indexed places", "count", len(places)-len(resp.Failed()), "failed", len(resp.Failed()), "index", s.index)
	return errs
}

func (s *Source) String() string {
	return "elasticsearch index " + s.index
}

func (d *Document) toPlace(docID string) model.Place {
	id := d.PlaceID
	if id == "" {
		id = SourceName + "/" + docID
	}
	return model.Place{
		ID:           id,
		Lat:          d.Location.Lat,
		Lon:          d.Location.Lon,
		Name:         d.Name,
		Category:     d.Category,
		Address:      d.Address,
		OpeningHours: d.OpeningHours,
		Source:       SourceName,
	}
}

func fromPlace(p model.Place) Document {
	return Document{
		PlaceID:      p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Address:      p.Address,
		Location:     elastic.GeoPoint{Lat: p.Lat, Lon: p.Lon},
		OpeningHours: p.OpeningHours,
	}
}
