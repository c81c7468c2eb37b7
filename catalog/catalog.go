// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package catalog keeps the list of finished recordings.
//
// Records live in a bolt database, one bucket keyed by an auto-increment
// sequence so that a reverse cursor walks them newest first. Each record
// points at a video file and, optionally, at a JPEG cover next to it.
package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	bolt "go.etcd.io/bbolt"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/frame"
)

// ErrNotFound is returned when no record has the requested file name.
var ErrNotFound = errors.New("catalog: video not found")

// DefaultContentType is used when the file type cannot be detected.
const DefaultContentType = "video/mp4"

var bucketVideos = []byte("videos")

// Video is one finished recording.
type Video struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	FileName    string     `json:"fileName"`
	Path        string     `json:"path"`
	ContentType string     `json:"contentType"`
	Kind        frame.Kind `json:"kind"`
	Cover       string     `json:"cover,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Store is a bolt-backed catalog.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVideos)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Save registers the video file at path. Name and FileName are derived
// from the path, the content type is sniffed from the file header. A record
// with the same file name is replaced.
func (s *Store) Save(path string, kind frame.Kind, cover string) (Video, error) {
	v := Video{
		Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FileName:    filepath.Base(path),
		Path:        path,
		ContentType: contentType(path),
		Kind:        kind,
		Cover:       cover,
		CreatedAt:   time.Now(),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVideos)
		if k, _, err := find(b, v.FileName); err != nil {
			return err
		} else if k != nil {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		// newest record at the end of the bucket
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		v.ID = id

		buf, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put(itob(id), buf)
	})
	if err != nil {
		return Video{}, fmt.Errorf("catalog: save %s: %w", v.FileName, err)
	}

	ggvideo.Logger().Info("catalog: video saved", "id", v.ID, "file", v.FileName, "kind", v.Kind)
	return v, nil
}

func contentType(path string) string {
	t, err := filetype.MatchFile(path)
	if err != nil || t == filetype.Unknown || t.MIME.Value == "" {
		return DefaultContentType
	}
	return t.MIME.Value
}

// Get returns the record of fileName.
func (s *Store) Get(fileName string) (Video, error) {
	var v Video
	err := s.db.View(func(tx *bolt.Tx) error {
		k, found, err := find(tx.Bucket(bucketVideos), fileName)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrNotFound
		}
		v = found
		return nil
	})
	return v, err
}

// Delete removes the record of fileName together with its video file and
// cover. Files that are already gone are ignored.
func (s *Store) Delete(fileName string) error {
	var v Video
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVideos)
		k, found, err := find(b, fileName)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrNotFound
		}
		v = found
		return b.Delete(k)
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range []string{v.Path, v.Cover} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	ggvideo.Logger().Info("catalog: video deleted", "id", v.ID, "file", v.FileName)
	return errors.Join(errs...)
}

// List returns records newest first, skipping the first skip matches.
// kind filters by content mode; nil returns every kind. n <= 0 returns
// all remaining records.
func (s *Store) List(kind *frame.Kind, skip, n int) ([]Video, error) {
	videos := []Video{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketVideos).Cursor()

		matched := 0
		for k, raw := c.Last(); k != nil; k, raw = c.Prev() {
			v, err := decode(raw)
			if err != nil {
				return err
			}
			if kind != nil && v.Kind != *kind {
				continue
			}
			matched++
			if matched <= skip {
				continue
			}
			videos = append(videos, v)
			if n > 0 && len(videos) == n {
				break
			}
		}
		return nil
	})
	return videos, err
}

// find looks up the record of fileName. A nil key means not found.
func find(b *bolt.Bucket, fileName string) ([]byte, Video, error) {
	c := b.Cursor()
	for k, raw := c.Last(); k != nil; k, raw = c.Prev() {
		v, err := decode(raw)
		if err != nil {
			return nil, Video{}, err
		}
		if v.FileName == fileName {
			return append([]byte(nil), k...), v, nil
		}
	}
	return nil, Video{}, nil
}

func decode(raw []byte) (Video, error) {
	var v Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return Video{}, fmt.Errorf("catalog: decode record: %w", err)
	}
	return v, nil
}
