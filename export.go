package bibtex

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// ExportSplit writes one BibTeX file per entry type into outDirName,
// named after the type (article.bib, inbook.bib, ...). Each part is first
// deduplicated on year and title. It returns the written file names in
// sorted order.
func ExportSplit(bib *File, outDirName string) ([]string, error) {
	files := Split(bib)
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	if err := EnsureDir(outDirName); err != nil {
		return nil, err
	}
	var written []string
	for _, name := range slices.Sorted(maps.Keys(files)) {
		part, _, err := Deduplicate([]*File{files[name]}, []string{"year", "title"}, SetUnion)
		if err != nil {
			return written, err
		}
		fileName := filepath.Join(outDirName, name+".bib")
		if err := part.Save(fileName); err != nil {
			return written, err
		}
		written = append(written, fileName)
	}
	return written, nil
}

// EnsureDir creates dirName if it does not exist.
func EnsureDir(dirName string) error {
	err := os.Mkdir(dirName, 0750)
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		info, err := os.Stat(dirName)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s exists but is not a directory", dirName)
		}
		return nil
	}
	return err
}
