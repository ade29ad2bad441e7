/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package adjfile

import (
	"fmt"
	"os"

	"github.com/alexflint/go-filemutex"
	log "github.com/sirupsen/logrus"
)

// Store loads and saves the adjtime record. A run reads the file at
// most once and writes it at most once, guarded by the record's Dirty
// flag. With locking enabled, a file mutex next to the adjtime file
// serializes concurrent runs; the engine itself assumes a single
// writer.
type Store struct {
	Path string
	mu   *filemutex.FileMutex
}

// NewStore creates a store for the adjtime file at path. With lock
// set, concurrent processes are serialized through path + ".lock".
func NewStore(path string, lock bool) (*Store, error) {
	s := &Store{Path: path}
	if lock {
		mu, err := filemutex.New(path + ".lock")
		if err != nil {
			return nil, fmt.Errorf("creating lock for %s: %w", path, err)
		}
		s.mu = mu
	}
	return s, nil
}

// Load reads and parses the adjtime file. A missing file surfaces as
// an os.ErrNotExist-wrapping error, distinct from malformed contents.
func (s *Store) Load() (*Record, error) {
	if s.mu != nil {
		if err := s.mu.Lock(); err != nil {
			return nil, fmt.Errorf("locking %s: %w", s.Path, err)
		}
		defer func() {
			if err := s.mu.Unlock(); err != nil {
				log.Warningf("unlocking %s: %v", s.Path, err)
			}
		}()
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", s.Path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	log.Debugf("%s: drift factor %f sec/day, last adjusted %d, last calibrated %d, %s",
		s.Path, r.DriftFactor, r.LastAdjTime, r.LastCalibTime, r.Timescale)
	return r, nil
}

// Save persists the record if it is dirty, clearing the flag on
// success. A clean record is a no-op.
func (s *Store) Save(r *Record) error {
	if !r.Dirty {
		return nil
	}
	if s.mu != nil {
		if err := s.mu.Lock(); err != nil {
			return fmt.Errorf("locking %s: %w", s.Path, err)
		}
		defer func() {
			if err := s.mu.Unlock(); err != nil {
				log.Warningf("unlocking %s: %v", s.Path, err)
			}
		}()
	}
	if err := os.WriteFile(s.Path, r.Format(), 0644); err != nil {
		return fmt.Errorf("cannot update %s: %w", s.Path, err)
	}
	r.Dirty = false
	return nil
}
