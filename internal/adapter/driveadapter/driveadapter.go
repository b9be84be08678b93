package driveadapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
	"github.com/jgivc/musicsync/internal/service/download"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	pageSize       = 1000
	listFields     = "nextPageToken, files(id, name, size, modifiedTime)"
	copyBufferSize = 1 << 20
)

// Factory hands out independent Drive clients that share one token source.
type Factory struct {
	ts       oauth2.TokenSource
	endpoint string
	log      *slog.Logger
}

// NewFactory returns a factory. An empty endpoint means the public Drive API.
func NewFactory(ts oauth2.TokenSource, endpoint string, log *slog.Logger) *Factory {
	return &Factory{
		ts:       ts,
		endpoint: endpoint,
		log:      log.With(slog.String("item", "DriveFactory")),
	}
}

// NewClient builds a client with its own HTTP transport.
func (f *Factory) NewClient(ctx context.Context) (*Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	hc := &http.Client{
		Transport: &oauth2.Transport{Source: f.ts, Base: base},
	}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create drive service: %w", err)
	}

	return &Client{srv: srv, transport: base, log: f.log}, nil
}

func (f *Factory) NewFetcher(ctx context.Context) (download.Fetcher, error) {
	return f.NewClient(ctx)
}

type Client struct {
	srv       *drive.Service
	transport *http.Transport
	log       *slog.Logger
}

// ListPage returns one page of non-trashed files in folderID with the given
// mime type.
func (c *Client) ListPage(ctx context.Context, folderID, mimeType, pageToken string) (*entity.Page, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", quote(folderID), quote(mimeType))

	call := c.srv.Files.List().
		Q(q).
		PageSize(pageSize).
		Fields(listFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("cannot list folder %s: %w", folderID, err)
	}

	page := &entity.Page{
		Items:         make([]entity.RemoteItem, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}

	// The query only matches binary files, which always carry a size. A zero
	// size is a real empty file.
	for _, f := range resp.Files {
		item := entity.RemoteItem{
			ID:        f.Id,
			Name:      f.Name,
			Size:      f.Size,
			SizeKnown: true,
		}

		if f.ModifiedTime != "" {
			if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
				item.ModifiedTime = t
			} else {
				c.log.Debug("Cannot parse modified time", slog.String("id", f.Id), slog.Any("error", err))
			}
		}

		page.Items = append(page.Items, item)
	}

	return page, nil
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote escapes a value for use inside a single-quoted query literal.
func quote(s string) string {
	return queryEscaper.Replace(s)
}

// Fetch streams the content of file id into w and closes the client's idle
// connections once done.
func (c *Client) Fetch(ctx context.Context, id string, w io.Writer) (int64, error) {
	defer c.transport.CloseIdleConnections()

	resp, err := c.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return 0, fmt.Errorf("cannot request file %s: %w", id, err)
	}
	defer resp.Body.Close()

	n, err := io.CopyBuffer(w, resp.Body, make([]byte, copyBufferSize))
	if err != nil {
		return n, fmt.Errorf("cannot read file %s: %w", id, err)
	}

	return n, nil
}
