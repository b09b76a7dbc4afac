package ingest

import (
	"context"
	"fmt"

	"milestone-rag/internal/vectorstore"
)

// IsIngested reports whether records for fileName already exist in the
// index. The probe vector is all zeros: the lookup relies entirely on
// the file-name filter, not on similarity ranking. The check is
// advisory only; concurrent writers of the same file are not guarded.
func IsIngested(ctx context.Context, store vectorstore.Store, dimension int, fileName string) (bool, error) {
	probe := make([]float32, dimension)
	matches, err := store.Search(ctx, probe, 1, vectorstore.Filter{vectorstore.FieldFileName: fileName})
	if err != nil {
		return false, fmt.Errorf("dedup lookup for %s: %w", fileName, err)
	}
	return len(matches) > 0, nil
}
