package beaker

// Cell type tags and the id prefixes generated for them
const (
	TypeCode     = "code"
	TypeMarkdown = "markdown"
	TypeText     = "text"
	TypeSection  = "section"
)

// Output selections for code cells
const (
	SelectedText  = "Text"
	SelectedImage = "Image"
)

// ModePreview is the display mode of imported markdown cells
const ModePreview = "preview"

// ImageIconType is the result type of image outputs
const ImageIconType = "ImageIcon"

// Cell is one of *CodeCell, *MarkdownCell, *TextCell or *SectionCell
type Cell interface {
	CellID() string
	CellType() string
}

// CodeCell is an executable cell
type CodeCell struct {
	ID        string     `json:"id"`
	Evaluator string     `json:"evaluator"`
	Type      string     `json:"type"`
	Input     CodeInput  `json:"input"`
	Output    CodeOutput `json:"output"`
}

// CodeInput holds the cell source
type CodeInput struct {
	Body string `json:"body"`
}

// CodeOutput holds the recorded result. Result is a string for text and
// empty outputs, or an *ImageIcon for images. SelectedType is empty when
// no output could be derived.
type CodeOutput struct {
	SelectedType string `json:"selectedType,omitempty"`
	Result       any    `json:"result"`
}

// ImageIcon is the result of an image output
type ImageIcon struct {
	Type      string `json:"type"`
	ImageData string `json:"imageData"`
}

// MarkdownCell is rendered markdown
type MarkdownCell struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Body string `json:"body"`
	Mode string `json:"mode"`
}

// TextCell is plain text
type TextCell struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Body string `json:"body"`
}

// SectionCell is a heading. The heading text lives in Title; Body is
// always empty on import. Level is nil when the source had none.
type SectionCell struct {
	ID    string  `json:"id"`
	Level *int    `json:"level,omitempty"`
	Type  string  `json:"type"`
	Body  string  `json:"body"`
	Title *string `json:"title,omitempty"`
}

// NewCodeCell returns a code cell with an empty body and empty result
func NewCodeCell(id, evaluator string) *CodeCell {
	return &CodeCell{
		ID:        id,
		Evaluator: evaluator,
		Type:      TypeCode,
		Output:    CodeOutput{Result: ""},
	}
}

// NewImageIcon wraps encoded image data
func NewImageIcon(data string) *ImageIcon {
	return &ImageIcon{Type: ImageIconType, ImageData: data}
}

func (c *CodeCell) CellID() string       { return c.ID }
func (c *CodeCell) CellType() string     { return c.Type }
func (c *MarkdownCell) CellID() string   { return c.ID }
func (c *MarkdownCell) CellType() string { return c.Type }
func (c *TextCell) CellID() string       { return c.ID }
func (c *TextCell) CellType() string     { return c.Type }
func (c *SectionCell) CellID() string    { return c.ID }
func (c *SectionCell) CellType() string  { return c.Type }
