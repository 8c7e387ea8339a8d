package normalize

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Sources is the built-in mapping table for the static per-source JSON
// exports. Each row reconciles one source's field names with the
// canonical shape; adding a source means adding a row, not a function.
// Sources whose export carries no usable date or link get a literal
// source tag instead so downstream identity keys stay meaningful.
var Sources = map[string]Rule{
	"clb": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "description"},
		Date:        Mapping{Field: "date"},
		Link:        Mapping{Field: "link"},
		Content:     Mapping{Field: "paragram"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataCLB.json",
	},
	"animal": {
		Title:       Mapping{Field: "name"},
		Description: Mapping{Field: "description"},
		Date:        Mapping{Literal: "animal"},
		Link:        Mapping{Field: "link"},
		Content:     Mapping{Field: "content"},
		Identity:    []Field{FieldTitle, FieldDescription},
		StripHTML:   true,
		File:        "dataAnimal.json",
	},
	"nhom-two": {
		Title:       Mapping{Field: "song"},
		Description: Mapping{Field: "artists"},
		Date:        Mapping{Literal: "nhom2"},
		Link:        Mapping{Literal: "nhom2"},
		Content:     Mapping{Field: "lyrics"},
		Identity:    []Field{FieldTitle, FieldDescription},
		File:        "dataNhom2.json",
	},
	"nhom4": {
		Title:       Mapping{Field: "Title"},
		Description: Mapping{Field: "Author"},
		Date:        Mapping{Literal: "nhom4"},
		Link:        Mapping{Field: "Link"},
		Content:     Mapping{Field: "Content"},
		Identity:    []Field{FieldTitle, FieldDescription},
		File:        "dataNhom4.json",
	},
	"knd": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "summary"},
		Date:        Mapping{Field: "time"},
		Link:        Mapping{Field: "url"},
		Content:     Mapping{Field: "body"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataKND.json",
	},
	"ot3": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "sapo"},
		Date:        Mapping{Field: "date"},
		Link:        Mapping{Field: "link"},
		Content:     Mapping{Field: "content"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataOT3.json",
	},
	"dma": {
		Title:       Mapping{Field: "ten"},
		Description: Mapping{Field: "mo_ta"},
		Date:        Mapping{Literal: "dma"},
		Link:        Mapping{Field: "nguon"},
		Content:     Mapping{Field: "noi_dung"},
		Identity:    []Field{FieldTitle, FieldDescription},
		StripHTML:   true,
		File:        "dataDMA.json",
	},
	"thk": {
		Title:       Mapping{Field: "headline"},
		Description: Mapping{Field: "description"},
		Date:        Mapping{Field: "published"},
		Link:        Mapping{Field: "href"},
		Content:     Mapping{Field: "text"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataTHK.json",
	},
	"sol3": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "description"},
		Date:        Mapping{Literal: "sol3"},
		Link:        Mapping{Field: "link"},
		Content:     Mapping{Field: "lyric"},
		Identity:    []Field{FieldTitle, FieldDescription},
		File:        "dataSOL3.json",
	},
	"nhom5": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "desc"},
		Date:        Mapping{Field: "date"},
		Link:        Mapping{Field: "url"},
		Content:     Mapping{Field: "detail"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataNhom5.json",
	},
	"nhom7": {
		Title:       Mapping{Field: "name"},
		Description: Mapping{Field: "intro"},
		Date:        Mapping{Literal: "nhom7"},
		Link:        Mapping{Field: "source"},
		Content:     Mapping{Field: "body"},
		Identity:    []Field{FieldTitle, FieldDescription},
		StripHTML:   true,
		File:        "dataNhom7.json",
	},
	"acv1": {
		Title:       Mapping{Field: "Title"},
		Description: Mapping{Field: "Summary"},
		Date:        Mapping{Field: "Date"},
		Link:        Mapping{Field: "Url"},
		Content:     Mapping{Field: "Body"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataACV1.json",
	},
	"nhom11": {
		Title:       Mapping{Field: "title"},
		Description: Mapping{Field: "description"},
		Date:        Mapping{Field: "date"},
		Link:        Mapping{Field: "link"},
		Content:     Mapping{Field: "content"},
		Identity:    []Field{FieldTitle, FieldDescription, FieldDate},
		File:        "dataNhom11.json",
	},
}

// SourceIDs returns the known source ids in stable order, for route
// registration and logging.
func SourceIDs(table map[string]Rule) []string {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type rulesFile struct {
	Sources map[string]Rule `yaml:"sources"`
}

// LoadRules reads a YAML mapping-rule file and merges its rows over the
// built-in table. Rows with an existing id replace the built-in rule;
// new ids are added. The built-in table itself is never mutated.
func LoadRules(path string) (map[string]Rule, error) {
	merged := make(map[string]Rule, len(Sources))
	for id, r := range Sources {
		merged[id] = r
	}
	if path == "" {
		return merged, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for id, r := range f.Sources {
		merged[id] = r
	}
	return merged, nil
}
