// Package session implements C6: the session registry keyed by
// {date}_{project}, and the domain suggestion registry.
package session

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/pathsafe"
)

type registryFile struct {
	Version  string                   `json:"version"`
	Sessions map[string]model.Session `json:"sessions"`
}

// seedDomains mirrors original_source's default domains.json "default"
// category list, supplemented by whatever domains are actually observed
// on chunks.
var seedDomains = []string{
	"dev", "research", "planning", "debug", "test", "docs",
	"review", "deploy", "feature", "bugfix", "refactor", "meeting", "decision",
}

type domainsFile struct {
	Seed     []string `json:"seed"`
	Observed []string `json:"observed"`
}

// Registry manages sessions.json and domains.json.
type Registry struct {
	sessionsPath string
	domainsPath  string
}

func NewRegistry(sessionsPath, domainsPath string) *Registry {
	return &Registry{sessionsPath: sessionsPath, domainsPath: domainsPath}
}

// Register creates or reuses the session for {date}_{project} and
// appends domain to its domain list if not already present.
func (r *Registry) Register(date, project, domain string) (string, error) {
	id := date + "_" + project
	err := pathsafe.WithExclusiveLock(r.sessionsPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		sess, ok := reg.Sessions[id]
		if !ok {
			sess = model.Session{
				ID:        id,
				Date:      date,
				Project:   project,
				StartedAt: time.Now().UTC().Format(time.RFC3339),
				ChunkIDs:  []string{},
				Domains:   []string{},
			}
		}
		if domain != "" && !contains(sess.Domains, domain) {
			sess.Domains = append(sess.Domains, domain)
		}
		reg.Sessions[id] = sess
		return r.save(reg)
	})
	if err != nil {
		return "", err
	}
	if domain != "" {
		if derr := r.observeDomain(domain); derr != nil {
			return id, derr
		}
	}
	return id, nil
}

// AddChunk appends chunkID to the session's chunk list.
func (r *Registry) AddChunk(sessionID, chunkID string) error {
	return pathsafe.WithExclusiveLock(r.sessionsPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		sess, ok := reg.Sessions[sessionID]
		if !ok {
			return nil
		}
		if !contains(sess.ChunkIDs, chunkID) {
			sess.ChunkIDs = append(sess.ChunkIDs, chunkID)
		}
		reg.Sessions[sessionID] = sess
		return r.save(reg)
	})
}

// List returns sessions filtered by project/domain, ordered by ID desc
// (IDs are date-prefixed, so this is recency order).
func (r *Registry) List(project, domain string, limit int) ([]model.Session, error) {
	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(reg.Sessions))
	for _, s := range reg.Sessions {
		if project != "" && s.Project != project {
			continue
		}
		if domain != "" && !contains(s.Domains, domain) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListDomains returns the seed suggestions plus every domain ever
// observed on a chunk, deduplicated.
func (r *Registry) ListDomains() ([]string, error) {
	data, err := os.ReadFile(r.domainsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return append([]string{}, seedDomains...), nil
		}
		return nil, err
	}
	var df domainsFile
	if err := json.Unmarshal(data, &df); err != nil {
		return append([]string{}, seedDomains...), nil
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, d := range append(append([]string{}, df.Seed...), df.Observed...) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Registry) observeDomain(domain string) error {
	return pathsafe.WithExclusiveLock(r.domainsPath, func() error {
		data, err := os.ReadFile(r.domainsPath)
		df := domainsFile{Seed: append([]string{}, seedDomains...)}
		if err == nil {
			_ = json.Unmarshal(data, &df)
		} else if !os.IsNotExist(err) {
			return err
		}
		if !contains(df.Observed, domain) {
			df.Observed = append(df.Observed, domain)
		}
		out, merr := json.MarshalIndent(df, "", "  ")
		if merr != nil {
			return merr
		}
		return pathsafe.AtomicWrite(r.domainsPath, out)
	})
}

func (r *Registry) load() (registryFile, error) {
	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return registryFile{Version: "1.0.0", Sessions: map[string]model.Session{}}, nil
		}
		return registryFile{}, err
	}
	var reg registryFile
	if err := json.Unmarshal(data, &reg); err != nil {
		return registryFile{}, err
	}
	if reg.Sessions == nil {
		reg.Sessions = map[string]model.Session{}
	}
	return reg, nil
}

func (r *Registry) save(reg registryFile) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return pathsafe.AtomicWrite(r.sessionsPath, data)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
