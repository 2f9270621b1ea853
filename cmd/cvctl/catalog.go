package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cvio-backend/internal/skills"
)

// catalogFile is the on-disk skill catalog format shared by render and
// seed-skills.
type catalogFile struct {
	Skills []skills.CreateSkillRequest `yaml:"skills"`
}

func readCatalog(path string) ([]skills.CreateSkillRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return file.Skills, nil
}
