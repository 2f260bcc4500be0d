package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

//go:embed packs/classic.json
var builtin embed.FS

// Role is one playable role at a location.
type Role struct {
	Name string `json:"name"`
	Hint string `json:"hint"`
}

// Location is one candidate location with its role list.
type Location struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Roles []Role `json:"roles"`
}

// Pack is an immutable location catalog identified by its pack id.
type Pack struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Locations []Location `json:"locations"`
}

// LocationRef is the public id+name pair shown to the spy.
type LocationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider owns the loaded location packs. It is built once at startup,
// injected into the engine, and read-only afterwards.
type Provider struct {
	packs map[string]*Pack
}

// Load builds a Provider from the built-in pack plus any *.json packs found
// in dir. A pack file with the same id as the built-in one overrides it.
// An empty dir loads only the built-in pack.
func Load(dir string) (*Provider, error) {
	p := &Provider{packs: make(map[string]*Pack)}

	data, err := builtin.ReadFile("packs/classic.json")
	if err != nil {
		return nil, fmt.Errorf("read built-in pack: %w", err)
	}
	pack, err := parsePack("classic", data)
	if err != nil {
		return nil, fmt.Errorf("built-in pack invalid: %w", err)
	}
	p.packs[pack.ID] = pack

	if dir == "" {
		return p, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Pack directory %s not found, using built-in packs only", dir)
			return p, nil
		}
		return nil, fmt.Errorf("read pack directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("Failed to read pack %s: %v", entry.Name(), err)
			continue
		}
		pack, err := parsePack(id, data)
		if err != nil {
			log.Printf("Skipping invalid pack %s: %v", entry.Name(), err)
			continue
		}
		p.packs[pack.ID] = pack
		log.Printf("Loaded location pack: %s (%d locations)", pack.Name, len(pack.Locations))
	}

	return p, nil
}

func parsePack(id string, data []byte) (*Pack, error) {
	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	if pack.ID == "" {
		pack.ID = id
	}
	if len(pack.Locations) == 0 {
		return nil, fmt.Errorf("pack %s has no locations", pack.ID)
	}
	seen := make(map[string]bool, len(pack.Locations))
	for _, loc := range pack.Locations {
		if loc.ID == "" || loc.Name == "" {
			return nil, fmt.Errorf("pack %s has a location without id or name", pack.ID)
		}
		if seen[loc.ID] {
			return nil, fmt.Errorf("pack %s has duplicate location id %s", pack.ID, loc.ID)
		}
		seen[loc.ID] = true
	}
	return &pack, nil
}

// Pack returns the pack for the given id.
func (p *Provider) Pack(id string) (*Pack, bool) {
	pack, ok := p.packs[id]
	return pack, ok
}

// Has reports whether a pack with the given id is loaded.
func (p *Provider) Has(id string) bool {
	_, ok := p.packs[id]
	return ok
}

// LocationList returns the id+name pairs of every location in a pack. This is
// the list the spy sees; it never carries role data.
func (p *Provider) LocationList(id string) []LocationRef {
	pack, ok := p.packs[id]
	if !ok {
		return nil
	}
	refs := make([]LocationRef, 0, len(pack.Locations))
	for _, loc := range pack.Locations {
		refs = append(refs, LocationRef{ID: loc.ID, Name: loc.Name})
	}
	return refs
}

// PackIDs returns the ids of all loaded packs.
func (p *Provider) PackIDs() []string {
	ids := make([]string, 0, len(p.packs))
	for id := range p.packs {
		ids = append(ids, id)
	}
	return ids
}
