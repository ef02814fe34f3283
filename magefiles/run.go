//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Imports the save file named by $SAVE into a glb next to it.
func (Run) Import() error {
	save := os.Getenv("SAVE")
	if save == "" {
		return fmt.Errorf("set SAVE to a save file path")
	}
	_, err := executeCmd("go", withArgs("run", "./cmd/ttsimport", "-save", save), withStream())
	return err
}

// Prints the parsed entity table of $SAVE.
func (Run) Inspect() error {
	save := os.Getenv("SAVE")
	if save == "" {
		return fmt.Errorf("set SAVE to a save file path")
	}
	_, err := executeCmd("go", withArgs("run", "./cmd/inspectsave", save), withStream())
	return err
}
