package systems

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

// PDFPageReader reads the text layer of booklet PDFs stored as
// <dir>/<document>.pdf.
type PDFPageReader struct {
	dir string
}

func NewPDFPageReader(dir string) *PDFPageReader {
	return &PDFPageReader{dir: dir}
}

// PageTexts returns the plain text of every page. Pages whose text cannot be
// extracted come back empty so page numbers stay aligned.
func (p *PDFPageReader) PageTexts(ctx context.Context, document string) ([]string, error) {
	path := filepath.Join(p.dir, document+".pdf")
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	texts := make([]string, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}
