package planner

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sjsage522/weibosearch/pkg/errors"
)

//go:embed regions.yaml
var defaultRegions []byte

// City is a city inside a region
type City struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Region is a top-level region (province) of the search filter
type Region struct {
	Name   string `yaml:"name"`
	Code   string `yaml:"code"`
	Cities []City `yaml:"cities"`
}

// RegionTree is the read-only region reference data
type RegionTree struct {
	regions []Region
	byName  map[string]int
}

// ParseRegionTree decodes a YAML region list
func ParseRegionTree(data []byte) (*RegionTree, error) {
	var regions []Region
	if err := yaml.Unmarshal(data, &regions); err != nil {
		return nil, errors.NewConfiguration("invalid region tree", err)
	}

	tree := &RegionTree{
		regions: regions,
		byName:  make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		if r.Name == "" || r.Code == "" {
			return nil, errors.NewConfiguration(fmt.Sprintf("region #%d needs a name and a code", i+1), nil)
		}
		if _, dup := tree.byName[r.Name]; dup {
			return nil, errors.NewConfiguration(fmt.Sprintf("duplicate region %q", r.Name), nil)
		}
		tree.byName[r.Name] = i
	}
	return tree, nil
}

// DefaultRegionTree returns the embedded region tree
func DefaultRegionTree() *RegionTree {
	tree, err := ParseRegionTree(defaultRegions)
	if err != nil {
		panic(fmt.Sprintf("embedded region tree: %v", err))
	}
	return tree
}

// LoadRegionTree reads a region tree from path, or the embedded tree when path is empty
func LoadRegionTree(path string) (*RegionTree, error) {
	if path == "" {
		return DefaultRegionTree(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("read region file %s", path), err)
	}
	return ParseRegionTree(data)
}

// Lookup returns the region with the given name
func (t *RegionTree) Lookup(name string) (*Region, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.regions[i], true
}

// Regions returns the regions in file order
func (t *RegionTree) Regions() []Region {
	if t == nil {
		return nil
	}
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}
