// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/jeranaias/pai/internal/export"
	"github.com/jeranaias/pai/internal/storage"
)

// HandleExport writes the saved conversation to a file in args.OutputDir and
// prints the path.
func HandleExport(w io.Writer, store *storage.HistoryStore, args Args, modelName string) error {
	opts := export.DefaultOptions()
	opts.OutputDir = args.OutputDir
	opts.Model = modelName

	exp, err := export.ForFormat(args.Format, opts)
	if err != nil {
		return NewUsageError(err.Error())
	}

	msgs, err := store.LoadStrict()
	if err != nil {
		return fmt.Errorf("%s: %w", store.Path, err)
	}

	path, err := export.ExportToFile(msgs, exp, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Exported %d messages to %s\n", SuccessStyle.Render("[OK]"), len(msgs), path)
	return nil
}
