package cli

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/consensus/pkg/logger"
	"gopkg.in/yaml.v3"
)

// LoadProfile reads a profile document from path. YAML is a superset of
// JSON, so both formats go through the YAML decoder.
func LoadProfile(path string) (*ProfileDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfile, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a profile document or a bare list of ballots.
func ParseProfile(data []byte) (*ProfileDoc, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfile, err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrProfile)
	}

	var doc ProfileDoc
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&doc.Ballots); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProfile, err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProfile, err)
		}
	default:
		return nil, fmt.Errorf("%w: want a mapping or a list of ballots", ErrProfile)
	}
	return &doc, nil
}

// GenerateProfile builds a profile of uniformly shuffled ballots over
// candidates c0..c{candidates-1}. A non-zero seed makes it reproducible.
func GenerateProfile(ctx context.Context, voters, candidates int, seed uint64) *ProfileDoc {
	logger.Get().Debug(ctx, "generating random profile",
		logger.Int("voters", voters), logger.Int("candidates", candidates))

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	names := make([]string, candidates)
	for i := range names {
		names[i] = "c" + strconv.Itoa(i)
	}
	ballots := make([][]string, voters)
	for v := range ballots {
		b := make([]string, candidates)
		copy(b, names)
		rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
		ballots[v] = b
	}
	return &ProfileDoc{Ballots: ballots}
}

// SaveProfile writes doc to path as YAML.
func SaveProfile(ctx context.Context, path string, doc *ProfileDoc) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), filePermission); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	logger.Get().Info(ctx, "profile saved to file", logger.String("filename", path))
	return nil
}

// indexProfile maps candidate names to 0..M-1 in first-ballot order so the
// indexed entry points can run on string profiles. It returns the integer
// profile and the index-to-name table.
func indexProfile(ballots [][]string) ([][]int, []string) {
	if len(ballots) == 0 {
		return nil, nil
	}
	names := append([]string(nil), ballots[0]...)
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; !dup {
			index[n] = i
		}
	}

	out := make([][]int, len(ballots))
	for v, b := range ballots {
		row := make([]int, len(b))
		for i, n := range b {
			k, ok := index[n]
			if !ok {
				// Out of range; AuditIndexed reports it.
				k = len(names)
			}
			row[i] = k
		}
		out[v] = row
	}
	return out, names
}
