// Package tui is the interactive grid editor: labels with expandable values, inline
// cell editing and a batch save.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"
	"catalog-editor/internal/store"
)

// Syncer is the backend side of the editor. *catalogsync.Service satisfies it.
//
// Load and Send run inside tea.Cmds, off the update loop; PrepareBatch and Complete
// touch the queue and run on the update loop.
type Syncer interface {
	Load(ctx context.Context) ([]model.Label, error)
	PrepareBatch() catalogsync.Batch
	Send(ctx context.Context, b catalogsync.Batch) catalogsync.Result
	Complete(b catalogsync.Batch, res catalogsync.Result)
}

type Options struct {
	Service Syncer
	Queue   *opqueue.Store
	State   store.StateDir
	Log     zerolog.Logger
}

func Run(opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
