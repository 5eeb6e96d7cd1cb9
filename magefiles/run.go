//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Opens the viewer window on the directory in $ASSETS (default: assets).
func (Run) Viewer() error {
	fmt.Println("Run viewer...")
	if _, err := executeCmd("go", withArgs("run", ".", "-assets", assetDir(), "-watch"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the load pipeline without a window and serves the inspector on :8080.
func (Run) Headless() error {
	fmt.Println("Run headless...")
	if _, err := executeCmd("go", withArgs("run", ".", "-headless", "-assets", assetDir(), "-watch", "-inspect", ":8080"), withStream()); err != nil {
		return err
	}
	return nil
}

func assetDir() string {
	if dir := os.Getenv("ASSETS"); dir != "" {
		return dir
	}
	return "assets"
}
