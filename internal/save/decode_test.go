package save

import (
	"encoding/json"
	"strings"
	"testing"
)

const deckSave = `{
  "SaveName": "Agricola",
  "GameMode": "Agricola",
  "ObjectStates": [
    null,
    {
      "GUID": "a1b2c3",
      "Name": "Card",
      "Transform": {"posX": 1.5, "posY": 2, "posZ": -3, "rotX": 0, "rotY": 180, "rotZ": 0, "scaleX": 1, "scaleY": 1, "scaleZ": 1},
      "CardID": 1007,
      "CustomDeck": {
        "10": {"FaceURL": "http://example.com/face.jpg", "BackURL": "http://example.com/back.jpg", "NumWidth": 10, "NumHeight": 7},
        "2": {"FaceURL": "http://example.com/other.jpg", "NumWidth": 2, "NumHeight": 2}
      }
    }
  ]
}`

func TestDecodeKeepsNullsAndDeckOrder(t *testing.T) {
	doc, err := Decode(strings.NewReader(deckSave))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.GameMode != "Agricola" {
		t.Fatalf("game mode mismatch: %q", doc.GameMode)
	}
	if len(doc.ObjectStates) != 2 || doc.ObjectStates[0] != nil {
		t.Fatalf("object states mismatch: %+v", doc.ObjectStates)
	}

	card := doc.ObjectStates[1]
	if card.CardID != "1007" {
		t.Fatalf("card id = %q, want 1007", card.CardID)
	}
	if len(card.CustomDeck) != 2 {
		t.Fatalf("expected 2 deck entries, got %d", len(card.CustomDeck))
	}
	first, ok := card.CustomDeck.First()
	if !ok || first.ID != "10" {
		t.Fatalf("first deck = %+v, want id 10", first)
	}
	if first.Sheet.NumWidth != 10 || first.Sheet.NumHeight != 7 {
		t.Fatalf("sheet dims mismatch: %+v", first.Sheet)
	}
	if card.Transform == nil || card.Transform.PosX == nil || *card.Transform.PosX != 1.5 {
		t.Fatalf("transform mismatch: %+v", card.Transform)
	}
}

func TestDecodeMissingObjectStates(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"GameMode": "x"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ObjectStates != nil {
		t.Fatalf("expected nil object states, got %+v", doc.ObjectStates)
	}

	doc, err = Decode(strings.NewReader(`{"ObjectStates": []}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ObjectStates == nil {
		t.Fatalf("empty list should decode to a non-nil slice")
	}
}

func TestCardIDForms(t *testing.T) {
	tests := []struct {
		in   string
		want CardID
	}{
		{`1007`, "1007"},
		{`"31402"`, "31402"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var c CardID
		if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if c != tt.want {
			t.Errorf("CardID(%s) = %q, want %q", tt.in, c, tt.want)
		}
	}

	out, err := json.Marshal(CardID("1007"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "1007" {
		t.Fatalf("marshal = %s, want 1007", out)
	}
}

func TestDeckMapRejectsNonObject(t *testing.T) {
	var m DeckMap
	if err := json.Unmarshal([]byte(`[1,2]`), &m); err == nil {
		t.Fatalf("expected error for array CustomDeck")
	}
}

func TestDeckMapMarshalOrder(t *testing.T) {
	m := DeckMap{
		{ID: "9", Sheet: DeckSheet{FaceURL: "a", NumWidth: 1, NumHeight: 1}},
		{ID: "1", Sheet: DeckSheet{FaceURL: "b", NumWidth: 2, NumHeight: 2}},
	}
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back DeckMap
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 || back[0].ID != "9" || back[1].ID != "1" {
		t.Fatalf("order lost: %+v", back)
	}
}
