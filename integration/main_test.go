//go:build integration

package integration_test

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const binary = "advbs-portal"

// binaryPath is where TestMain leaves the freshly built portal.
var binaryPath string

func buildCommandAndRunTests(m *testing.M) int {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	binaryPath = filepath.Join(wd, binary)

	cmd := exec.Command("go", "build", "-buildvcs=false", "-race", "-cover", "-o", binaryPath, "../cmd/"+binary)
	if output, err := cmd.CombinedOutput(); err != nil {
		log.Printf("output: %s", output)
		log.Fatalf("error: %v", err)
	}
	defer os.Remove(binaryPath)

	return m.Run()
}

func TestMain(m *testing.M) {
	os.Exit(buildCommandAndRunTests(m))
}
