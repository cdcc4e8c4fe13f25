package airports

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed airports.toml
var defaultDataset []byte

// Dataset bundles the directory and blocklist loaded together at startup.
type Dataset struct {
	Directory *Directory
	Blocklist *Blocklist
}

// datasetFile is the on-disk TOML layout.
type datasetFile struct {
	Blocklist []string          `toml:"blocklist"`
	Airports  map[string]string `toml:"airports"`
}

// Default loads the dataset compiled into the binary.
func Default() (*Dataset, error) {
	var f datasetFile
	if _, err := toml.Decode(string(defaultDataset), &f); err != nil {
		return nil, fmt.Errorf("decoding embedded dataset: %w", err)
	}
	return f.build()
}

// Load reads a TOML dataset from r.
func Load(r io.Reader) (*Dataset, error) {
	var f datasetFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return f.build()
}

// LoadFile reads a TOML dataset from path.
func LoadFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	return Load(file)
}

func (f datasetFile) build() (*Dataset, error) {
	if len(f.Airports) == 0 {
		return nil, fmt.Errorf("dataset has no airports")
	}
	dir, err := NewDirectory(f.Airports)
	if err != nil {
		return nil, err
	}
	block, err := NewBlocklist(f.Blocklist...)
	if err != nil {
		return nil, err
	}
	return &Dataset{Directory: dir, Blocklist: block}, nil
}
