package catalogstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-datastore"
	"github.com/vodworks/video-delivery/pkg/store"
)

// catalogKey is the fixed composite key of the catalog record.
var catalogKey = datastore.NewKey("/all_videos/current")

type catalogRow struct {
	Videos      string `json:"videos"`
	LastUpdated string `json:"lastUpdated"`
	PlaylistKey string `json:"playlistKey,omitempty"`
}

// DsCatalogStore implements CatalogStore on an IPFS datastore. It is used by
// the local server mode and tests.
type DsCatalogStore struct {
	data datastore.Datastore
}

func NewDsCatalogStore(ds datastore.Datastore) *DsCatalogStore {
	return &DsCatalogStore{ds}
}

// Get implements CatalogStore.
func (d *DsCatalogStore) Get(ctx context.Context) (Record, error) {
	b, err := d.data.Get(ctx, catalogKey)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return Record{}, store.ErrNotFound
		}
		return Record{}, fmt.Errorf("getting catalog record: %w", err)
	}

	var row catalogRow
	if err := json.Unmarshal(b, &row); err != nil {
		return Record{}, fmt.Errorf("parsing catalog record: %w", err)
	}
	return recordFromRow(row)
}

// Put implements CatalogStore.
func (d *DsCatalogStore) Put(ctx context.Context, rec Record) error {
	row, err := rowFromRecord(rec)
	if err != nil {
		return err
	}
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("serializing catalog record: %w", err)
	}
	if err := d.data.Put(ctx, catalogKey, b); err != nil {
		return fmt.Errorf("storing catalog record: %w", err)
	}
	return nil
}

func rowFromRecord(rec Record) (catalogRow, error) {
	videos, err := json.Marshal(rec.Videos)
	if err != nil {
		return catalogRow{}, fmt.Errorf("serializing video list: %w", err)
	}
	return catalogRow{
		Videos:      string(videos),
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
		PlaylistKey: rec.PlaylistKey,
	}, nil
}

func recordFromRow(row catalogRow) (Record, error) {
	var videos []Video
	if err := json.Unmarshal([]byte(row.Videos), &videos); err != nil {
		return Record{}, fmt.Errorf("parsing video list: %w", err)
	}
	lastUpdated, err := time.Parse(time.RFC3339Nano, row.LastUpdated)
	if err != nil {
		return Record{}, fmt.Errorf("parsing last updated timestamp: %w", err)
	}
	return Record{
		Videos:      videos,
		LastUpdated: lastUpdated,
		PlaylistKey: row.PlaylistKey,
	}, nil
}

var _ CatalogStore = (*DsCatalogStore)(nil)
