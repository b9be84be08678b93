package entity

// Collection is a named logical group of remote files mapped to one remote folder.
type Collection struct {
	Name     string // Local directory name under the sync root
	FolderID string // Remote folder identifier
}
