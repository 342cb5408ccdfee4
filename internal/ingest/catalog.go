package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"soltab/internal/port"
)

// DirCatalog lists every table found in any extraction method directory.
type DirCatalog struct {
	roots  []string
	logger *zap.Logger
}

func NewDirCatalog(roots []string, logger *zap.Logger) *DirCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirCatalog{roots: roots, logger: logger}
}

// List returns the union of tables across roots ordered by document and
// table index. A page found in any root is kept. Missing roots are skipped.
func (c *DirCatalog) List(ctx context.Context) ([]port.TableRef, error) {
	type key struct {
		doc string
		idx int
	}
	found := map[key]port.TableRef{}
	add := func(ref port.TableRef) {
		k := key{ref.Document, ref.TableIndex}
		if prev, ok := found[k]; ok && prev.Page > 0 {
			return
		}
		found[k] = ref
	}

	for _, root := range c.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			c.logger.Warn("ingest.DirCatalog: method directory missing", zap.String("root", root))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			switch {
			case strings.HasSuffix(name, ".csv"):
				if ref, ok := ParseTableFile(name); ok {
					add(ref)
				}
			case strings.HasSuffix(name, ".xlsx") && !strings.HasPrefix(name, "~$"):
				refs, err := workbookRefs(filepath.Join(root, name), strings.TrimSuffix(name, ".xlsx"))
				if err != nil {
					c.logger.Warn("ingest.DirCatalog: skipping workbook", zap.String("file", name), zap.Error(err))
					continue
				}
				for _, ref := range refs {
					add(ref)
				}
			}
		}
	}

	out := make([]port.TableRef, 0, len(found))
	for _, ref := range found {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Document != out[j].Document {
			return out[i].Document < out[j].Document
		}
		return out[i].TableIndex < out[j].TableIndex
	})
	return out, nil
}
