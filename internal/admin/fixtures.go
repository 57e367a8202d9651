package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/clout/internal/domain/model"
)

// Fixtures is the seed file layout.
type Fixtures struct {
	Cappers []CapperFixture `yaml:"cappers"`
	Events  []EventFixture  `yaml:"events"`
}

// CapperFixture creates a capper account.
type CapperFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Bio      string `yaml:"bio"`
}

// EventFixture creates an event. ExternalID makes re-seeding idempotent.
type EventFixture struct {
	ExternalID   string             `yaml:"external_id"`
	Name         string             `yaml:"name"`
	Organization model.Organization `yaml:"organization"`
	Date         time.Time          `yaml:"date"`
	Venue        string             `yaml:"venue"`
	Location     string             `yaml:"location"`
	Fights       []model.Fight      `yaml:"fights"`
}

// LoadFixtures reads and decodes a YAML seed file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("admin: read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a YAML seed document. Unknown keys are rejected.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("admin: parse fixtures: %w", err)
	}
	for i, e := range f.Events {
		if e.ExternalID == "" {
			return nil, fmt.Errorf("admin: event %d (%q) needs an external_id", i, e.Name)
		}
	}
	return &f, nil
}
