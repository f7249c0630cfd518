// Package toolchain drives the external assembler and linker that turn the
// generated NASM source into a runnable executable.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bminorlang/bminor/pkg/logging"
)

// Driver invokes nasm and the C compiler (used as linker, pulling in libc for
// printf). Every step is a blocking subprocess; a non-zero exit surfaces as a
// toolchain error.
type Driver struct {
	nasm   string
	cc     string
	logger *logging.Logger
}

// NewDriver creates a toolchain driver. Empty tool paths fall back to the
// conventional binaries found on PATH.
func NewDriver(nasm, cc string, logger *logging.Logger) *Driver {
	if nasm == "" {
		nasm = "nasm"
	}
	if cc == "" {
		cc = "cc"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{nasm: nasm, cc: cc, logger: logger}
}

// assembleArgs builds the nasm invocation for one assembly file.
func assembleArgs(asmPath, objPath string) []string {
	return []string{"-f", "elf64", "-o", objPath, asmPath}
}

// linkArgs builds the linker invocation. The C compiler links without its own
// startup files; the generated _start is the entry point and libc supplies
// printf.
func linkArgs(objPath, outPath string) []string {
	return []string{"-nostartfiles", "-o", outPath, objPath, "-no-pie", "-lc"}
}

func (d *Driver) runTool(ctx context.Context, name string, args []string) error {
	d.logger.Infof("running %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// Assemble runs nasm over the generated assembly, producing an ELF64 object.
func (d *Driver) Assemble(ctx context.Context, asmPath, objPath string) error {
	return d.runTool(ctx, d.nasm, assembleArgs(asmPath, objPath))
}

// Link turns the object file into an executable.
func (d *Driver) Link(ctx context.Context, objPath, outPath string) error {
	return d.runTool(ctx, d.cc, linkArgs(objPath, outPath))
}

// Build assembles and links in one step. The object file is named after the
// output with a .o suffix.
func (d *Driver) Build(ctx context.Context, asmPath, outPath string) error {
	objPath := outPath + ".o"
	if err := d.Assemble(ctx, asmPath, objPath); err != nil {
		return err
	}
	return d.Link(ctx, objPath, outPath)
}

// Run executes the produced binary and returns its standard output and exit
// code. The program's exit code is its main function's return value, so a
// non-zero exit is reported alongside the output rather than as a failure.
func (d *Driver) Run(ctx context.Context, exePath string) (string, int, error) {
	if !strings.ContainsRune(exePath, filepath.Separator) {
		exePath = "./" + exePath
	}

	d.logger.Infof("running %s", exePath)

	cmd := exec.CommandContext(ctx, exePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return stdout.String(), exitErr.ExitCode(), nil
		}
		return "", 0, fmt.Errorf("failed to execute %s: %w", exePath, err)
	}
	return stdout.String(), 0, nil
}
