// Package plugin registers the IPython importer with a host notebook
// application and contributes its File > Open menu entry.
//
// The host is reached only through Services; nothing here touches the
// filesystem or the terminal directly.
package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/gerunddev/nbimport/internal/convert"
	"github.com/gerunddev/nbimport/internal/importer"
)

// Extension is the file extension offered by the file chooser
const Extension = ".ipynb"

// ErrCancelled is returned by Services.ChooseFile when the user closes
// the chooser without picking a file
var ErrCancelled = errors.New("file selection cancelled")

// Services is what the plugin needs from the host application
type Services interface {
	// HomeDirectory returns the directory the file chooser starts in
	HomeDirectory(ctx context.Context) (string, error)
	// ChooseFile asks the user for a file under dir with the given
	// extension. It returns ErrCancelled if nothing was chosen.
	ChooseFile(ctx context.Context, dir, extension string) (string, error)
	// OpenNotebook opens path through the importer registered under token
	OpenNotebook(ctx context.Context, path, token string) error
}

// Register adds the IPython importer to reg under importer.TokenIPynb
func Register(reg *importer.Registry, conv *convert.Converter, strict bool) error {
	if err := reg.Register(importer.TokenIPynb, importer.NewIPynb(conv, strict)); err != nil {
		return fmt.Errorf("failed to register ipynb importer: %w", err)
	}
	return nil
}
