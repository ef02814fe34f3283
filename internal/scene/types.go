package scene

import "fmt"

// Vec3 is an (x, y, z) triple.
type Vec3 struct {
	X, Y, Z float64
}

// Transform places one entity in the target scene. Rotation is Euler XYZ in degrees.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// DefaultTransform is the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: Vec3{1, 1, 1}}
}

// ColorDiffuse is a flat RGB color in [0,1], used when an entity has no texture.
type ColorDiffuse struct {
	R, G, B float64
}

// DefaultColor is white.
func DefaultColor() ColorDiffuse {
	return ColorDiffuse{1, 1, 1}
}

// Kind tags the variant held by an Entity.
type Kind int

const (
	KindUnhandled Kind = iota
	KindCustomModel
	KindCard
	KindPlane
	KindDeck
)

func (k Kind) String() string {
	switch k {
	case KindUnhandled:
		return "unhandled"
	case KindCustomModel:
		return "custom_model"
	case KindCard:
		return "card"
	case KindPlane:
		return "plane"
	case KindDeck:
		return "deck"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Buildable reports whether the build driver materializes entities of this kind.
func (k Kind) Buildable() bool {
	return k == KindCustomModel || k == KindCard || k == KindPlane
}

// Entity is one parsed save object. Exactly one payload pointer matching Kind is set.
type Entity struct {
	Kind Kind
	GUID string
	Tag  string // save-file Name, e.g. "Custom_Model"

	Model     *CustomModel
	Card      *Card
	Plane     *Plane
	Deck      *Deck
	Unhandled *Unhandled
}

// CustomModel is a mesh-backed object.
type CustomModel struct {
	MeshURL    string
	DiffuseURL string // empty means use Color
	Transform  Transform
	Color      ColorDiffuse
}

// Textured reports whether the model carries a diffuse texture.
func (m *CustomModel) Textured() bool {
	return m.DiffuseURL != ""
}

// Card is one cell of a deck sprite sheet.
type Card struct {
	Index       int // zero-based, row-major
	CardID      string
	DeckID      string
	FaceURL     string
	BackURL     string
	SheetWidth  int // columns
	SheetHeight int // rows
	Transform   Transform
}

// Plane is an image-backed tile or board.
type Plane struct {
	ImageURL    string
	ImageScalar float64
	WidthScale  float64
	Transform   Transform
}

// Deck is read for bookkeeping only. Expanding it into per-card entities is not supported.
type Deck struct {
	DeckID      string
	FaceURL     string
	BackURL     string
	SheetWidth  int
	SheetHeight int
	CardIDs     []string
	Transform   Transform
}

// Unhandled records an object whose tag has no mapping (HandTrigger, dice, ...).
type Unhandled struct {
	Nickname string
}

// Counts tallies entities by kind.
func Counts(entities []Entity) map[Kind]int {
	out := make(map[Kind]int)
	for _, e := range entities {
		out[e.Kind]++
	}
	return out
}
