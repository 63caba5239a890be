package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category groups distraction keywords under one tag.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Profile is the optional YAML file that refines the environment config:
//
//	categories:
//	  - name: social
//	    keywords: [instagram, twitter, reddit]
//	private_windows:
//	  - "*1Password*"
type Profile struct {
	Categories     []Category `yaml:"categories"`
	PrivateWindows []string   `yaml:"private_windows"`
}

// LoadProfile reads the profile at path. A missing file yields an empty profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	for i, c := range p.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
	}
	return &p, nil
}

// mergeCategories turns every plain keyword into a category of its own and
// folds in the profile's named categories. Names are compared case-insensitively.
func mergeCategories(profile []Category, keywords []string) []Category {
	var out []Category
	index := make(map[string]int)

	add := func(name string, kws ...string) {
		key := strings.ToLower(strings.TrimSpace(name))
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, Category{Name: key})
			i = len(out) - 1
		}
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || contains(out[i].Keywords, kw) {
				continue
			}
			out[i].Keywords = append(out[i].Keywords, kw)
		}
	}

	for _, kw := range keywords {
		add(kw, kw)
	}
	for _, c := range profile {
		add(c.Name, c.Keywords...)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
