package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/gerunddev/nbimport/internal/importer"
)

// Menu identifiers contributed to the host
const (
	MenuParent  = "File"
	MenuGroupID = "file-menu"
	MenuSubmenu = "Open"
	MenuItemID  = "open-ipython-menuitem"
)

// MenuGroup is a set of items added under a parent menu
type MenuGroup struct {
	Parent  string     `json:"parent"`
	ID      string     `json:"id"`
	Submenu string     `json:"submenu"`
	Items   []MenuItem `json:"items"`
}

// MenuItem is a single menu entry. Action runs when the entry is chosen.
type MenuItem struct {
	Name        string                          `json:"name"`
	ID          string                          `json:"id"`
	ReducedName string                          `json:"reducedName"`
	Tooltip     string                          `json:"tooltip"`
	SortOrder   int                             `json:"sortorder"`
	Action      func(ctx context.Context) error `json:"-"`
}

// MenuItems builds the File > Open entry. It waits for the host's home
// directory once; the returned action reuses it on every activation.
func MenuItems(ctx context.Context, svc Services) ([]MenuGroup, error) {
	home, err := svc.HomeDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	item := MenuItem{
		Name:        "Open... IPython (.ipynb)",
		ID:          MenuItemID,
		ReducedName: "Open...",
		Tooltip:     "Open a IPython notebook from file system and convert it to Beaker notebook",
		SortOrder:   110,
		Action: func(ctx context.Context) error {
			return openFromChooser(ctx, svc, home)
		},
	}

	return []MenuGroup{{
		Parent:  MenuParent,
		ID:      MenuGroupID,
		Submenu: MenuSubmenu,
		Items:   []MenuItem{item},
	}}, nil
}

// FindItem returns the item with the given id from groups
func FindItem(groups []MenuGroup, id string) (MenuItem, bool) {
	for _, g := range groups {
		for _, item := range g.Items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return MenuItem{}, false
}

func openFromChooser(ctx context.Context, svc Services, home string) error {
	path, err := svc.ChooseFile(ctx, home, Extension)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil
		}
		return fmt.Errorf("file chooser failed: %w", err)
	}
	return svc.OpenNotebook(ctx, path, importer.TokenIPynb)
}
