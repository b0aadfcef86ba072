// Package assets loads the two optional static blobs spec.md §6 describes:
// a newline-separated dictionary backing RecoverSecret's sentence mode, and
// a file of newline-separated mazes that MonstrousMaze rounds sample from.
// Loads are memoized per path, the way the teacher's items/loader.go loads
// items.json once and serves every subsequent RPC from memory — generalized
// from a single fixed path to a small cache since --load-dictionary and a
// maze catalog path are both operator-configured.
package assets

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"crab.casa/puzzle-tournament/internal/ptserr"
)

// Dictionary is a loaded wordlist, satisfying
// internal/challenge/recoversecret.Dictionary.
type Dictionary struct {
	words map[string]bool
}

// Has reports whether word (case-sensitive as stored) is in the
// dictionary.
func (d *Dictionary) Has(word string) bool {
	if d == nil {
		return false
	}
	return d.words[word]
}

type dictEntry struct {
	once sync.Once
	dict *Dictionary
	err  error
}

var (
	dictMu    sync.Mutex
	dictCache = make(map[string]*dictEntry)
)

// LoadDictionary reads a newline-separated wordlist from path, memoizing
// the result per path so repeated calls (one per connecting client) never
// re-read the file. Words are lowercased at load time since RecoverSecret's
// sentence mode only ever looks up lowercased tokens.
func LoadDictionary(path string) (*Dictionary, error) {
	dictMu.Lock()
	entry, ok := dictCache[path]
	if !ok {
		entry = &dictEntry{}
		dictCache[path] = entry
	}
	dictMu.Unlock()

	entry.once.Do(func() {
		f, err := os.Open(path)
		if err != nil {
			entry.err = err
			return
		}
		defer f.Close()

		words := make(map[string]bool)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			words[strings.ToLower(line)] = true
		}
		if err := scanner.Err(); err != nil {
			entry.err = err
			return
		}
		entry.dict = &Dictionary{words: words}
	})
	if entry.err != nil {
		return nil, ptserr.ErrAssetUnavailable
	}
	return entry.dict, nil
}

// MazeCatalog is a loaded set of mazes for MonstrousMaze rounds, each a
// newline-separated grid (spec.md §3's grid shape), one per line with
// embedded newlines escaped as "\n" — matching the on-disk convention of
// original_source/monstrous_maze's test fixtures (data/mazes.txt).
type MazeCatalog struct {
	grids []string
}

// Grids returns the loaded maze layouts, newlines already unescaped.
func (c *MazeCatalog) Grids() []string {
	if c == nil {
		return nil
	}
	return c.grids
}

type mazeEntry struct {
	once    sync.Once
	catalog *MazeCatalog
	err     error
}

var (
	mazeMu    sync.Mutex
	mazeCache = make(map[string]*mazeEntry)
)

// LoadMazeCatalog reads a file of newline-separated, \n-escaped maze grids
// from path, memoizing the result per path the same way LoadDictionary
// does.
func LoadMazeCatalog(path string) (*MazeCatalog, error) {
	mazeMu.Lock()
	entry, ok := mazeCache[path]
	if !ok {
		entry = &mazeEntry{}
		mazeCache[path] = entry
	}
	mazeMu.Unlock()

	entry.once.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			entry.err = err
			return
		}

		var grids []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			grids = append(grids, strings.ReplaceAll(line, `\n`, "\n"))
		}
		entry.catalog = &MazeCatalog{grids: grids}
	})
	if entry.err != nil {
		return nil, ptserr.ErrAssetUnavailable
	}
	return entry.catalog, nil
}
