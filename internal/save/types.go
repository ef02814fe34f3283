package save

// Document matches the top level of a Tabletop Simulator save file.
// ObjectStates is nil when the key is missing (or explicitly null).
type Document struct {
	SaveName     string         `json:"SaveName,omitempty"`
	GameMode     string         `json:"GameMode,omitempty"`
	Date         string         `json:"Date,omitempty"`
	ObjectStates []*ObjectState `json:"ObjectStates"`
}

// ObjectState is one entry of ObjectStates. Type-specific blocks are nil when absent.
type ObjectState struct {
	GUID         string          `json:"GUID,omitempty"`
	Name         string          `json:"Name"`
	Nickname     string          `json:"Nickname,omitempty"`
	Transform    *TransformState `json:"Transform,omitempty"`
	ColorDiffuse *ColorState     `json:"ColorDiffuse,omitempty"`
	CustomImage  *CustomImage    `json:"CustomImage,omitempty"`
	CustomMesh   *CustomMesh     `json:"CustomMesh,omitempty"`
	CardID       CardID          `json:"CardID,omitempty"`
	CustomDeck   DeckMap         `json:"CustomDeck,omitempty"`
	DeckIDs      []CardID        `json:"DeckIDs,omitempty"`
}

// TransformState holds the raw transform block. Pointers distinguish a missing field
// from an explicit zero.
type TransformState struct {
	PosX   *float64 `json:"posX,omitempty"`
	PosY   *float64 `json:"posY,omitempty"`
	PosZ   *float64 `json:"posZ,omitempty"`
	RotX   *float64 `json:"rotX,omitempty"`
	RotY   *float64 `json:"rotY,omitempty"`
	RotZ   *float64 `json:"rotZ,omitempty"`
	ScaleX *float64 `json:"scaleX,omitempty"`
	ScaleY *float64 `json:"scaleY,omitempty"`
	ScaleZ *float64 `json:"scaleZ,omitempty"`
}

// ColorState holds the raw ColorDiffuse block.
type ColorState struct {
	R *float64 `json:"r,omitempty"`
	G *float64 `json:"g,omitempty"`
	B *float64 `json:"b,omitempty"`
}

// CustomImage is carried by Custom_Board and Custom_Tile objects.
type CustomImage struct {
	ImageURL          string   `json:"ImageURL"`
	ImageSecondaryURL string   `json:"ImageSecondaryURL,omitempty"`
	ImageScalar       *float64 `json:"ImageScalar,omitempty"`
	WidthScale        *float64 `json:"WidthScale,omitempty"`
}

// CustomMesh is carried by Custom_Model and Custom_Model_Stack objects.
type CustomMesh struct {
	MeshURL     string `json:"MeshURL"`
	DiffuseURL  string `json:"DiffuseURL,omitempty"`
	NormalURL   string `json:"NormalURL,omitempty"`
	ColliderURL string `json:"ColliderURL,omitempty"`
}

// DeckSheet describes one CustomDeck entry: the face/back sprite sheets and their grid.
type DeckSheet struct {
	FaceURL      string `json:"FaceURL"`
	BackURL      string `json:"BackURL,omitempty"`
	NumWidth     int    `json:"NumWidth"`
	NumHeight    int    `json:"NumHeight"`
	BackIsHidden bool   `json:"BackIsHidden,omitempty"`
	UniqueBack   bool   `json:"UniqueBack,omitempty"`
}

// Float returns a pointer to v, for building TransformState and ColorState values.
func Float(v float64) *float64 {
	return &v
}
