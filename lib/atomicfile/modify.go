// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMaxAttempts bounds the Modify retry loop. Contention on a
// vault is human-scale — a handful of processes, occasional writes —
// so hitting this ceiling indicates something pathological rather
// than ordinary racing.
const DefaultMaxAttempts = 100

// ErrContention is returned when a Modify loop exhausts its attempt
// budget without committing.
var ErrContention = errors.New("atomicfile: too much write contention")

// Modify applies transform to the latest stored bytes and commits the
// result, retrying on ErrStale until it wins or the attempt budget
// runs out. A value that has never been written presents as an empty
// slice. Uses DefaultMaxAttempts; see ModifyN for an explicit budget.
func Modify(file *AtomicFile, transform func(current []byte) ([]byte, error)) error {
	return ModifyN(file, DefaultMaxAttempts, transform)
}

// ModifyN is Modify with an explicit attempt budget. maxAttempts <= 0
// retries without bound.
func ModifyN(file *AtomicFile, maxAttempts int, transform func(current []byte) ([]byte, error)) error {
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		latest, err := file.Load()
		if err != nil {
			return err
		}

		var current []byte
		if latest.Exists() {
			current, err = latest.ReadAll()
			if err != nil {
				return err
			}
		}

		proposed, err := transform(current)
		if err != nil {
			return fmt.Errorf("transforming value: %w", err)
		}

		committed, err := commit(file, latest, proposed)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
	}
	return ErrContention
}

// ModifyJSON is the structured variant of Modify: the stored value is
// decoded into T, transform mutates it in place, and the result is
// re-encoded and committed. exists is false when no version has been
// committed yet, in which case current points at a zero T.
func ModifyJSON[T any](file *AtomicFile, transform func(current *T, exists bool) error) error {
	return ModifyJSONN[T](file, DefaultMaxAttempts, transform)
}

// ModifyJSONN is ModifyJSON with an explicit attempt budget.
func ModifyJSONN[T any](file *AtomicFile, maxAttempts int, transform func(current *T, exists bool) error) error {
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		latest, err := file.Load()
		if err != nil {
			return err
		}

		var value T
		exists := latest.Exists()
		if exists {
			raw, err := latest.ReadAll()
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("decoding stored value: %w", err)
			}
		}

		if err := transform(&value, exists); err != nil {
			return fmt.Errorf("transforming value: %w", err)
		}

		proposed, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding value: %w", err)
		}

		committed, err := commit(file, latest, proposed)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
	}
	return ErrContention
}

// commit writes proposed to a scratch file and attempts the swap.
// Returns false (and no error) when the caller lost the race and
// should retry from a fresh load.
func commit(file *AtomicFile, latest ReadOnlyFile, proposed []byte) (bool, error) {
	tmp, err := file.MakeTemp()
	if err != nil {
		return false, err
	}
	defer tmp.Release()

	if _, err := tmp.Write(proposed); err != nil {
		return false, fmt.Errorf("writing scratch file: %w", err)
	}

	if _, err := file.CompareAndSwap(latest, tmp); err != nil {
		if errors.Is(err, ErrStale) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
