// Package wordlistdata embeds the ten BIP39 wordlists and the EFF large
// diceware wordlist as build-time resources, following the teacher's
// embed.FS convention for static assets shipped inside the binary.
package wordlistdata

import (
	"embed"
	"strings"
)

//go:embed data/*.txt
var files embed.FS

// BIP39WordlistSize is the number of entries every BIP39 wordlist carries.
const BIP39WordlistSize = 2048

// EFFLargeWordlistSize is the number of entries the EFF large diceware
// wordlist carries.
const EFFLargeWordlistSize = 7776

// names maps each embedded resource to its file under data/.
var names = map[string]string{
	"english":             "data/english.txt",
	"italian":             "data/italian.txt",
	"portuguese":          "data/portuguese.txt",
	"french":              "data/french.txt",
	"spanish":             "data/spanish.txt",
	"czech":               "data/czech.txt",
	"japanese":            "data/japanese.txt",
	"korean":              "data/korean.txt",
	"chinese_simplified":  "data/chinese_simplified.txt",
	"chinese_traditional": "data/chinese_traditional.txt",
	"eff_large":           "data/eff_large.txt",
}

// Load reads and splits the named embedded resource into one entry per
// line, dropping the trailing empty line produced by the file's final
// newline. It panics on a missing name or unreadable embed — both
// indicate a build-time packaging defect, not a runtime condition.
func Load(name string) []string {
	path, ok := names[name]
	if !ok {
		panic("wordlistdata: unknown resource " + name)
	}
	raw, err := files.ReadFile(path)
	if err != nil {
		panic("wordlistdata: " + path + ": " + err.Error())
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	return lines
}
