// Package transcode runs a decode and an encode process as a connected pair,
// streaming decoded bytes from one into the other over a single pipe.
package transcode

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"qtranscode/internal/services"
)

// Command is a fully resolved external process invocation.
type Command struct {
	Binary string
	Args   []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// Runner executes a decode/encode pair. The pipeline depends on this
// interface so tests can substitute fake process factories.
type Runner interface {
	Run(ctx context.Context, decode, encode Command) error
}

// PipeRunner wires decode stdout to encode stdin through an OS pipe. There is
// no intermediate buffering: backpressure is the pipe itself, so a stalled
// encoder blocks the decoder's writes.
type PipeRunner struct{}

// Run launches both processes and waits for both exit statuses, even when one
// is already known to have failed, so neither child is left unreaped. Both
// processes' stderr is discarded; a non-zero exit surfaces as a stage-tagged
// transcode error.
func (PipeRunner) Run(ctx context.Context, decode, encode Command) error {
	dec := exec.CommandContext(ctx, decode.Binary, decode.Args...) //nolint:gosec
	enc := exec.CommandContext(ctx, encode.Binary, encode.Args...) //nolint:gosec

	pr, pw, err := os.Pipe()
	if err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", "pipe", "create pipe", err)
	}
	dec.Stdout = pw
	enc.Stdin = pr

	if err := dec.Start(); err != nil {
		pw.Close()
		pr.Close()
		return services.Wrap(services.ErrTranscode, "transcode", "decode", "start process", err)
	}
	if err := enc.Start(); err != nil {
		// Closing our write end forces the decoder to see EPIPE and exit.
		pw.Close()
		pr.Close()
		_ = dec.Wait()
		return services.Wrap(services.ErrTranscode, "transcode", "encode", "start process", err)
	}

	// Both children hold their own duplicates of the pipe ends. Closing ours
	// immediately is what lets the encoder see EOF when the decoder exits.
	pw.Close()
	pr.Close()

	decErr := dec.Wait()
	encErr := enc.Wait()

	switch {
	case decErr != nil && encErr != nil:
		return services.Wrap(services.ErrTranscode, "transcode", "decode+encode", "both processes failed", decErr)
	case decErr != nil:
		return services.Wrap(services.ErrTranscode, "transcode", "decode", "process failed", decErr)
	case encErr != nil:
		return services.Wrap(services.ErrTranscode, "transcode", "encode", "process failed", encErr)
	}
	return nil
}
