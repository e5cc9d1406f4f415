package common

import (
	"context"
	"io"

	"atscore/internal/errors"
)

// CreateInputFunc builds an operation's input from the file contents
type CreateInputFunc[Input any] func(contents []string) Input

// OperationFunc runs the command's work
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunFileCommand reads the named files, runs op on the built input and
// writes the formatted result.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	stdout io.Writer,
	files []string,
	createInput CreateInputFunc[Input],
	op OperationFunc[Input, Output],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandlerWithWriter(logger, stdout)

	contents, err := fileProcessor.ValidateAndReadFiles(files...)
	if err != nil {
		return err
	}

	result, err := op(ctx, createInput(contents))
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
