package scene

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Hansen-L/TTS-Exporter/internal/save"
)

// ErrMalformedDocument is returned when a required top-level or nested field is missing.
var ErrMalformedDocument = errors.New("malformed scene document")

// Save-file object tags with a mapping.
const (
	TagCustomBoard      = "Custom_Board"
	TagCustomTile       = "Custom_Tile"
	TagCustomModel      = "Custom_Model"
	TagCustomModelStack = "Custom_Model_Stack"
	TagCard             = "Card"
	TagDeckCustom       = "DeckCustom"
	TagDeck             = "Deck"
)

// Options controls the parse pass.
type Options struct {
	Rotation RotationMode
}

// ParseFile loads the save at path and parses its objects.
func ParseFile(path string, opts Options) (*save.Document, []Entity, error) {
	doc, err := save.Load(path)
	if err != nil {
		return nil, nil, err
	}
	entities, err := Parse(doc, opts)
	if err != nil {
		return doc, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, entities, nil
}

// Parse converts the document's ObjectStates into entities, in order, skipping nulls.
func Parse(doc *save.Document, opts Options) ([]Entity, error) {
	if doc == nil || doc.ObjectStates == nil {
		return nil, fmt.Errorf("scene: ObjectStates missing: %w", ErrMalformedDocument)
	}

	entities := make([]Entity, 0, len(doc.ObjectStates))
	for i, obj := range doc.ObjectStates {
		if obj == nil {
			continue
		}
		e, err := parseObject(obj, opts)
		if err != nil {
			return nil, fmt.Errorf("scene: object %d (%s %s): %w", i, obj.Name, obj.GUID, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func parseObject(obj *save.ObjectState, opts Options) (Entity, error) {
	e := Entity{GUID: obj.GUID, Tag: obj.Name}

	switch obj.Name {
	case TagCustomBoard, TagCustomTile:
		if obj.Transform == nil {
			return e, missing("Transform")
		}
		if obj.CustomImage == nil {
			return e, missing("CustomImage")
		}
		e.Kind = KindPlane
		e.Plane = &Plane{
			ImageURL:    obj.CustomImage.ImageURL,
			ImageScalar: value(obj.CustomImage.ImageScalar, 1),
			WidthScale:  value(obj.CustomImage.WidthScale, 1),
			Transform:   transformFromState(obj.Transform, opts.Rotation),
		}

	case TagCustomModel, TagCustomModelStack:
		if obj.Transform == nil {
			return e, missing("Transform")
		}
		if obj.CustomMesh == nil {
			return e, missing("CustomMesh")
		}
		e.Kind = KindCustomModel
		e.Model = &CustomModel{
			MeshURL:    obj.CustomMesh.MeshURL,
			DiffuseURL: obj.CustomMesh.DiffuseURL,
			Transform:  transformFromState(obj.Transform, opts.Rotation),
			Color:      colorFromState(obj.ColorDiffuse),
		}

	case TagCard:
		if obj.Transform == nil {
			return e, missing("Transform")
		}
		deck, ok := obj.CustomDeck.First()
		if !ok {
			return e, missing("CustomDeck")
		}
		index, err := CardIndex(string(obj.CardID), deck.ID)
		if err != nil {
			return e, err
		}
		e.Kind = KindCard
		e.Card = &Card{
			Index:       index,
			CardID:      string(obj.CardID),
			DeckID:      deck.ID,
			FaceURL:     deck.Sheet.FaceURL,
			BackURL:     deck.Sheet.BackURL,
			SheetWidth:  deck.Sheet.NumWidth,
			SheetHeight: deck.Sheet.NumHeight,
			Transform:   transformFromState(obj.Transform, opts.Rotation),
		}

	case TagDeckCustom, TagDeck:
		if obj.Transform == nil {
			return e, missing("Transform")
		}
		deck, ok := obj.CustomDeck.First()
		if !ok {
			return e, missing("CustomDeck")
		}
		ids := make([]string, len(obj.DeckIDs))
		for i, id := range obj.DeckIDs {
			ids[i] = string(id)
		}
		e.Kind = KindDeck
		e.Deck = &Deck{
			DeckID:      deck.ID,
			FaceURL:     deck.Sheet.FaceURL,
			BackURL:     deck.Sheet.BackURL,
			SheetWidth:  deck.Sheet.NumWidth,
			SheetHeight: deck.Sheet.NumHeight,
			CardIDs:     ids,
			Transform:   transformFromState(obj.Transform, opts.Rotation),
		}

	default:
		e.Kind = KindUnhandled
		e.Unhandled = &Unhandled{Nickname: obj.Nickname}
	}

	return e, nil
}

// CardIndex strips the deck id prefix from a card id: "1007" in deck "10" is card 7.
func CardIndex(cardID, deckID string) (int, error) {
	if len(cardID) <= len(deckID) {
		return 0, fmt.Errorf("CardID %q not longer than deck id %q: %w", cardID, deckID, ErrMalformedDocument)
	}
	n, err := strconv.Atoi(cardID[len(deckID):])
	if err != nil {
		return 0, fmt.Errorf("CardID %q: card number: %v: %w", cardID, err, ErrMalformedDocument)
	}
	return n, nil
}

func missing(field string) error {
	return fmt.Errorf("missing %s: %w", field, ErrMalformedDocument)
}
