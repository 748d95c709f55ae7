// Package benchdata embeds offline sector benchmark texts so the pipeline
// can score a process without reaching the benchmark collaborator. Each
// file under sectors/ is named after its sector identifier.
package benchdata

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed sectors/*.md
var SectorFS embed.FS

// ReferenceURL is the public location of the sector plans the embedded
// texts summarize.
const ReferenceURL = "https://www.imda.gov.sg/-/media/Imda/Files/Industry-Development/IDP/%s-IDP.pdf"

// NormalizeSector lowercases a sector name and joins words with hyphens.
func NormalizeSector(sector string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(sector, "_", " "))), "-")
}

// Sectors lists the embedded sector identifiers in lexical order.
func Sectors() []string {
	entries, err := fs.ReadDir(SectorFS, "sectors")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

// Text returns the embedded benchmark text for sector.
func Text(sector string) (string, error) {
	data, err := SectorFS.ReadFile(path.Join("sectors", NormalizeSector(sector)+".md"))
	if err != nil {
		return "", fmt.Errorf("benchdata: sector %q: %w", sector, fs.ErrNotExist)
	}
	return string(data), nil
}
