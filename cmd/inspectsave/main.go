package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

func main() {
	rotation := flag.String("rotation", "full", "Rotation mode: full or upright")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspectsave [-rotation full|upright] <save.json>")
		os.Exit(2)
	}
	mode, err := scene.ParseRotationMode(*rotation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	doc, entities, err := scene.ParseFile(flag.Arg(0), scene.Options{Rotation: mode})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Save: %q (%s), %d objects\n", doc.SaveName, doc.GameMode, len(entities))
	counts := scene.Counts(entities)
	for _, k := range []scene.Kind{scene.KindCustomModel, scene.KindCard, scene.KindPlane, scene.KindDeck, scene.KindUnhandled} {
		fmt.Printf("  %s: %d\n", k, counts[k])
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tTAG\tGUID\tPOSITION\tROTATION\tSCALE\tSOURCE")
	for i, e := range entities {
		t, src := describe(e)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", i, e.Kind, e.Tag, e.GUID,
			vec(t.Position), vec(t.Rotation), vec(t.Scale), src)
	}
	tw.Flush()

	// UV quads for cards
	for i, e := range entities {
		if e.Kind != scene.KindCard {
			continue
		}
		c := e.Card
		q, err := spritesheet.Locate(c.Index, c.SheetWidth, c.SheetHeight)
		if err != nil {
			fmt.Printf("\n[%d] Card %s id=%s deck=%s: %v\n", i, e.GUID, c.CardID, c.DeckID, err)
			continue
		}
		fmt.Printf("\n[%d] Card %s id=%s deck=%s index=%d on %dx%d\n", i, e.GUID, c.CardID, c.DeckID, c.Index, c.SheetWidth, c.SheetHeight)
		fmt.Printf("    BR (%.4f, %.4f)  BL (%.4f, %.4f)\n", q.BottomRight.U, q.BottomRight.V, q.BottomLeft.U, q.BottomLeft.V)
		fmt.Printf("    TL (%.4f, %.4f)  TR (%.4f, %.4f)\n", q.TopLeft.U, q.TopLeft.V, q.TopRight.U, q.TopRight.V)
	}
}

func describe(e scene.Entity) (scene.Transform, string) {
	switch e.Kind {
	case scene.KindCustomModel:
		return e.Model.Transform, e.Model.MeshURL
	case scene.KindCard:
		return e.Card.Transform, e.Card.FaceURL
	case scene.KindPlane:
		return e.Plane.Transform, e.Plane.ImageURL
	case scene.KindDeck:
		return e.Deck.Transform, fmt.Sprintf("%s (%d cards)", e.Deck.FaceURL, len(e.Deck.CardIDs))
	}
	return scene.DefaultTransform(), e.Unhandled.Nickname
}

func vec(v scene.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
