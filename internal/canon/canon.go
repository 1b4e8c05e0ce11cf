// Package canon canonicalizes JSON text on disk before parsing: keys are
// sorted and extraneous whitespace stripped, so repeated runs over the same
// logical data produce byte-identical, diff-friendly input files. The core
// only requires that the output re-parses to the same logical tree.
package canon

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/logging"
)

// Canonicalizer structurally normalizes raw JSON text.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, rawText []byte) ([]byte, error)
}

// JQ canonicalizes by shelling out to jq with --sort-keys. The command is
// executed in argv form; nothing is interpolated through a shell.
type JQ struct {
	// Binary overrides the jq binary path. Empty means "jq" from PATH.
	Binary string
}

// Canonicalize implements Canonicalizer.
func (j *JQ) Canonicalize(ctx context.Context, rawText []byte) ([]byte, error) {
	binary := j.Binary
	if binary == "" {
		binary = "jq"
	}

	cmd := exec.CommandContext(ctx, binary, "--sort-keys", ".")
	cmd.Stdin = bytes.NewReader(rawText)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.NewProcessError("canonicalize",
			binary+" --sort-keys .",
			strings.TrimSpace(stderr.String()), err)
	}
	return stdout.Bytes(), nil
}

// CanonicalizeFile canonicalizes a JSON file in place next to the original,
// writing "<name>_canon.json", and returns the new path.
func CanonicalizeFile(ctx context.Context, c Canonicalizer, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapIO("read", path, err)
	}

	out, err := c.Canonicalize(ctx, raw)
	if err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(path, ".json") + "_canon.json"
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return "", errors.WrapIO("write", outPath, err)
	}

	logging.Ctx(ctx).Info().
		Str("in", path).
		Str("out", outPath).
		Msg("canonicalized input file")
	return outPath, nil
}
