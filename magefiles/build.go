//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var commands = []string{"ttsimport", "inspectsave"}

// Compiles every command into bin/.
func (Build) All() error {
	for _, c := range commands {
		out := filepath.Join("bin", c)
		if _, err := executeCmd("go", withArgs("build", "-o", out, "./cmd/"+c), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Runs go vet, then the tests with the race detector.
func Test() error {
	mg.Deps(Vet)
	fmt.Println("Running tests...")
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}

// Runs go vet over the module.
func Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."))
	return err
}
