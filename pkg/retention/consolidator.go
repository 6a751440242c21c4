package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArchiveConsolidator folds expired memory files into a single archive
// file, appending each under a header naming the source file. The archive
// grows monotonically; trimming it is the operator's business.
type ArchiveConsolidator struct {
	// ArchivePath is the file the content is appended to. Created on
	// first use.
	ArchivePath string
}

// Consolidate appends the file's content to the archive.
func (c *ArchiveConsolidator) Consolidate(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(c.ArchivePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n## Archived from %s\n\n", filepath.Base(path)); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := f.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}

// NewConsolidator returns the consolidator the policy asks for: an archive
// consolidator when a memory archive path is set, otherwise discard.
func NewConsolidator(policy Policy) Consolidator {
	if policy.MemoryArchivePath != "" {
		return &ArchiveConsolidator{ArchivePath: policy.MemoryArchivePath}
	}
	return DiscardConsolidator{}
}
