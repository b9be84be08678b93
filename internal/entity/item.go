package entity

import "time"

// RemoteItem represents a single remote file slated for download.
type RemoteItem struct {
	ID           string    // Opaque remote identifier, unique across collections
	Name         string    // File name, used as the local file name inside the collection dir
	Size         int64     // Size in bytes, meaningful only if SizeKnown
	SizeKnown    bool      // False when the remote did not report a size
	ModifiedTime time.Time // Zero if the remote did not report it
}

// Page is one page of a remote folder listing.
type Page struct {
	Items         []RemoteItem
	NextPageToken string // Empty on the last page
}
