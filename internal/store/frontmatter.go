package store

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

// frontmatter is the YAML document carried between the leading and
// trailing "---" delimiters of a chunk file, per spec §3/§6.
type frontmatter struct {
	Summary   string          `yaml:"summary"`
	Tags      []string        `yaml:"tags"`
	CreatedAt string          `yaml:"created_at"`
	Project   string          `yaml:"project,omitempty"`
	Domain    string          `yaml:"domain,omitempty"`
	Ticket    string          `yaml:"ticket,omitempty"`
	Entities  model.Entities  `yaml:"entities"`
}

// serializeChunkFile renders a chunk's frontmatter + body into the on-disk
// Markdown representation: "---\n<yaml>---\n\n<content>".
func serializeChunkFile(c *model.Chunk, content string) ([]byte, error) {
	fm := frontmatter{
		Summary:   c.Summary,
		Tags:      c.Tags,
		CreatedAt: c.CreatedAt,
		Project:   c.Project,
		Domain:    c.Domain,
		Ticket:    c.Ticket,
		Entities:  c.Entities,
	}
	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "marshal chunk frontmatter", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(yamlBytes)
	b.WriteString("---\n\n")
	b.WriteString(content)
	return []byte(b.String()), nil
}

// parseChunkFile splits a chunk file's raw bytes into its frontmatter and
// body content.
func parseChunkFile(raw []byte) (frontmatter, string, error) {
	text := string(raw)
	if !strings.HasPrefix(text, "---\n") {
		return frontmatter{}, text, nil
	}

	rest := text[len("---\n"):]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return frontmatter{}, text, nil
	}

	yamlPart := rest[:idx]
	body := rest[idx+len("\n---\n"):]
	body = strings.TrimPrefix(body, "\n")

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(yamlPart), &fm); err != nil {
		return frontmatter{}, "", rlmerr.Wrap(rlmerr.KindEncoding, "parse chunk frontmatter", err)
	}
	return fm, body, nil
}
