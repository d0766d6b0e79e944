//go:build mage
// +build mage

// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"bytes"
	"fmt"

	"github.com/princjef/mageutil/bintool"
	"github.com/princjef/mageutil/shellcmd"
)

var (
	golines = bintool.Must(bintool.NewGo(
		"github.com/segmentio/golines",
		"v0.12.2",
	))
	linter = bintool.Must(bintool.New(
		"golangci-lint{{.BinExt}}",
		"1.61.0",
		"https://github.com/golangci/golangci-lint/releases/download/v{{.Version}}/golangci-lint-{{.Version}}-{{.GOOS}}-{{.GOARCH}}{{.ArchiveExt}}",
	))
)

// version is stamped into the graphnode binary by Build.
var version = "dev"

// Format wraps long lines at 80 columns.
func Format() error {
	if err := golines.Ensure(); err != nil {
		return err
	}
	return golines.Command(`-m 80 --no-reformat-tags -w .`).Run()
}

// Lint lints the code.
func Lint() error {
	if err := linter.Ensure(); err != nil {
		return err
	}
	return linter.Command(`run ./...`).Run()
}

// Build builds the graphnode command into bin/.
func Build() error {
	return shellcmd.Command(fmt.Sprintf(
		`go build -ldflags "-X main.Version=%s" -o bin/ ./cmd/graphnode`,
		version,
	)).Run()
}

// Test runs the unit tests.
func Test() error {
	return shellcmd.Command(`go test -race -cover -timeout 60s ./...`).Run()
}

// TestClean runs the unit tests with no test cache.
func TestClean() error {
	return shellcmd.RunAll(
		`go clean -testcache`,
		`go test -race -cover -timeout 60s ./...`,
	)
}

// CI formats, lints, tests and builds, then checks nothing was reformatted.
func CI() error {
	for _, step := range []func() error{Format, Lint, Test, Build} {
		if err := step(); err != nil {
			return err
		}
	}

	modified, err := shellcmd.Command(`git ls-files -mz`).Output()
	if err != nil {
		return err
	}
	if len(modified) > 0 {
		files := bytes.Split(modified, []byte{0})
		return fmt.Errorf(
			`found modified files - %s`,
			bytes.Join(files[:len(files)-1], []byte(", ")),
		)
	}
	return nil
}
