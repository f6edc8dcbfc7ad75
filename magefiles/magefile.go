//go:build mage

// Package main provides build targets for the shelfmark project using Mage.
//
// Usage:
//
//	mage build      Compile the shelf binary to bin/
//	mage test       Run all tests
//	mage testUnit   Run package tests, skipping the end-to-end CLI suite
//	mage testCLI    Run only the CLI suite
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install shelf to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "shelf"
	binaryDir   = "bin"
	cmdDir      = "./cmd/shelf"
	cliPkg      = "github.com/mesh-intelligence/shelfmark/internal/cli"
	versionFlag = "github.com/mesh-intelligence/shelfmark/pkg/shelfmark.Version"
)

// ldflags stamps the version from SHELF_VERSION or the nearest git tag.
func ldflags() string {
	version := os.Getenv("SHELF_VERSION")
	if version == "" {
		if tag, err := sh.Output("git", "describe", "--tags", "--always"); err == nil {
			version = strings.TrimPrefix(tag, "v")
		}
	}
	if version == "" {
		return ""
	}
	return fmt.Sprintf("-X %s=%s", versionFlag, version)
}

// Build compiles the shelf binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// TestUnit runs every package's tests except the CLI suite.
func TestUnit() error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var unitPkgs []string
	for _, pkg := range strings.Split(pkgs, "\n") {
		if pkg != "" && pkg != cliPkg && !strings.HasSuffix(pkg, "/magefiles") {
			unitPkgs = append(unitPkgs, pkg)
		}
	}
	if len(unitPkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	args := append([]string{"test"}, unitPkgs...)
	return sh.RunV(binGo, args...)
}

// TestCLI runs the end-to-end command tests.
func TestCLI() error {
	return sh.RunV(binGo, "test", "-v", cliPkg)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
