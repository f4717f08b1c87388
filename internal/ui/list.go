package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/amx/internal/models"
)

var _ list.Item = targetItem{}

// targetItem wraps a sync-flagged [models.PlaylistRef] to implement [list.Item].
type targetItem struct {
	playlist models.PlaylistRef
	marker   string
}

func (i targetItem) FilterValue() string { return i.playlist.Name }
func (i targetItem) Title() string       { return i.playlist.Name }
func (i targetItem) Description() string {
	source := strings.TrimSpace(strings.ReplaceAll(i.playlist.Name, i.marker, ""))
	return fmt.Sprintf("syncs from %q", source)
}
