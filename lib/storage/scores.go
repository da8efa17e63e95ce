// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// scoreTable is the on-disk shape of the vault-wide score store.
type scoreTable map[string]int

func (s *Storage) scoreFile() (*atomicfile.AtomicFile, error) {
	file, err := s.open(vault.ScoresPath(s.root))
	if err != nil {
		return nil, fmt.Errorf("opening score store: %w", err)
	}
	return file, nil
}

// SetScore assigns a user score to a resource. A zero score removes
// the entry, since zero is also what unscored resources report.
func (s *Storage) SetScore(id resource.ID, score int) error {
	file, err := s.scoreFile()
	if err != nil {
		return err
	}

	err = atomicfile.ModifyJSONN(file, s.maxAttempts, func(table *scoreTable, exists bool) error {
		if *table == nil {
			*table = make(scoreTable)
		}
		if score == 0 {
			delete(*table, id.String())
		} else {
			(*table)[id.String()] = score
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scoring %s: %w", id, err)
	}

	s.logger.Debug("score set", "id", id, "score", score)
	return nil
}

// Score returns a resource's score, zero when unscored.
func (s *Storage) Score(id resource.ID) (int, error) {
	scores, err := s.AllScores()
	if err != nil {
		return 0, err
	}
	return scores[id], nil
}

// AllScores returns every scored resource.
func (s *Storage) AllScores() (map[resource.ID]int, error) {
	file, err := s.scoreFile()
	if err != nil {
		return nil, err
	}

	var raw scoreTable
	if err := readLatestJSON(file, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[resource.ID]int{}, nil
		}
		return nil, fmt.Errorf("reading score store: %w", err)
	}

	scores := make(map[resource.ID]int, len(raw))
	for key, score := range raw {
		id, err := resource.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("score store holds malformed id: %w", err)
		}
		scores[id] = score
	}
	return scores, nil
}
