package enumerate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/musicsync/internal/common"
	"github.com/jgivc/musicsync/internal/entity"
)

const (
	serviceName = "enumerate"
)

type Lister interface {
	ListPage(ctx context.Context, folderID, mimeType, pageToken string) (*entity.Page, error)
}

// Listing is the enumeration result for one collection. When Err is set,
// Items is empty and the collection is treated as having no work.
type Listing struct {
	Collection entity.Collection
	Items      []entity.RemoteItem
	Err        error
}

type Options struct {
	MimeType  string
	Extension string // Matched case-insensitively against the item name suffix
	Limit     int    // Max items per collection, 0 means no limit
}

type Enumerator struct {
	lister Lister
	opts   Options
	log    *slog.Logger
}

func NewEnumerator(lister Lister, opts Options, log *slog.Logger) *Enumerator {
	opts.Extension = strings.ToLower(opts.Extension)

	return &Enumerator{
		lister: lister,
		opts:   opts,
		log:    log.With(slog.String("service", serviceName)),
	}
}

// List pages through the whole folder listing before returning, so the
// caller gets an accurate total.
func (e *Enumerator) List(ctx context.Context, collection entity.Collection) Listing {
	log := e.log.With(slog.String("collection", collection.Name), slog.String("folder_id", collection.FolderID))

	items, err := e.listAll(ctx, collection.FolderID)
	if err != nil {
		log.Error("Cannot list collection", slog.Any("error", err))

		return Listing{Collection: collection, Err: err}
	}

	filtered := e.filter(items)
	log.Info("Listed collection", slog.Int("remote", len(items)), slog.Int("matched", len(filtered)))

	return Listing{Collection: collection, Items: filtered}
}

// ListAll enumerates collections in order. A failing collection does not
// stop the others.
func (e *Enumerator) ListAll(ctx context.Context, collections []entity.Collection) []Listing {
	listings := make([]Listing, 0, len(collections))
	for _, collection := range collections {
		if ctx.Err() != nil {
			listings = append(listings, Listing{Collection: collection, Err: ctx.Err()})

			continue
		}

		listings = append(listings, e.List(ctx, collection))
	}

	return listings
}

func (e *Enumerator) listAll(ctx context.Context, folderID string) ([]entity.RemoteItem, error) {
	var (
		items []entity.RemoteItem
		token string
		seen  = make(map[string]struct{})
	)

	for {
		page, err := e.lister.ListPage(ctx, folderID, e.opts.MimeType, token)
		if err != nil {
			return nil, fmt.Errorf("cannot list folder %s: %w", folderID, err)
		}
		if page == nil {
			return nil, fmt.Errorf("cannot list folder %s: %w", folderID, common.ErrEmptyPage)
		}

		items = append(items, page.Items...)

		token = page.NextPageToken
		if token == "" {
			return items, nil
		}

		if _, ok := seen[token]; ok {
			return nil, fmt.Errorf("folder %s: %w: %q", folderID, common.ErrPageTokenLoop, token)
		}
		seen[token] = struct{}{}
	}
}

func (e *Enumerator) filter(items []entity.RemoteItem) []entity.RemoteItem {
	filtered := make([]entity.RemoteItem, 0, len(items))
	for _, item := range items {
		if !strings.HasSuffix(strings.ToLower(item.Name), e.opts.Extension) {
			continue
		}

		filtered = append(filtered, item)

		if e.opts.Limit > 0 && len(filtered) >= e.opts.Limit {
			break
		}
	}

	return filtered
}
