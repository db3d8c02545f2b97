package export

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// FileName builds a download name such as
// "cuadratura-products-pucon-2026-03-01.csv".
func FileName(page, table, label, ext string, at time.Time) string {
	parts := []string{page}
	if table != "" {
		parts = append(parts, table)
	}
	if label != "" {
		parts = append(parts, label)
	}
	parts = append(parts, at.Format("2006-01-02"))
	name := slug.Make(strings.Join(parts, " "))
	return name + "." + strings.TrimPrefix(ext, ".")
}
