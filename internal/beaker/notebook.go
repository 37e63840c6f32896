// Package beaker models the Beaker notebook document produced by imports.
package beaker

// Version is the value of the "beaker" field on every notebook
const Version = "2"

// Evaluator and tag group names
const (
	EvaluatorHTML    = "Html"
	EvaluatorLatex   = "Latex"
	EvaluatorIPython = "IPython"

	TagRoot           = "root"
	TagInitialization = "initialization"
)

// Notebook is a Beaker notebook. Use New to get one with the fixed
// metadata block, and Append to add cells.
type Notebook struct {
	Beaker     string      `json:"beaker"`
	Evaluators []Evaluator `json:"evaluators"`
	Cells      []Cell      `json:"cells"`
	TagMap     TagMap      `json:"tagMap"`
	TagMap2    TagMap2     `json:"tagMap2"`
}

// Evaluator declares an execution backend. Imports and
// SupplementalClassPath are only emitted for evaluators that carry them.
type Evaluator struct {
	Name                  string  `json:"name"`
	Plugin                string  `json:"plugin"`
	Imports               *string `json:"imports,omitempty"`
	SupplementalClassPath *string `json:"supplementalClassPath,omitempty"`
}

// TagMap groups every cell under "root"
type TagMap struct {
	Root []string `json:"root"`
}

// TagMap2 groups cells by evaluator. Initialization is always empty for
// imported notebooks.
type TagMap2 struct {
	Initialization []string `json:"initialization"`
	IPython        []string `json:"IPython"`
}

// New returns an empty notebook with the Html, Latex and IPython
// evaluators declared.
func New() *Notebook {
	empty := ""
	classPath := ""
	return &Notebook{
		Beaker: Version,
		Evaluators: []Evaluator{
			{Name: EvaluatorHTML, Plugin: EvaluatorHTML},
			{Name: EvaluatorLatex, Plugin: EvaluatorLatex},
			{
				Name:                  EvaluatorIPython,
				Plugin:                EvaluatorIPython,
				Imports:               &empty,
				SupplementalClassPath: &classPath,
			},
		},
		Cells:   []Cell{},
		TagMap:  TagMap{Root: []string{}},
		TagMap2: TagMap2{Initialization: []string{}, IPython: []string{}},
	}
}

// Append adds a cell and records its id in both tag maps
func (nb *Notebook) Append(c Cell) {
	nb.Cells = append(nb.Cells, c)
	nb.TagMap.Root = append(nb.TagMap.Root, c.CellID())
	nb.TagMap2.IPython = append(nb.TagMap2.IPython, c.CellID())
}

// IDs returns the ids of all cells in order
func (nb *Notebook) IDs() []string {
	ids := make([]string, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		ids = append(ids, c.CellID())
	}
	return ids
}
