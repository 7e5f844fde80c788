// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps blobs on the local filesystem. Intended for development
// and single node deployments.
type LocalStorage struct {
	root string
	s    *Storage
}

func newLocal(s *Storage) (*LocalStorage, error) {
	root, err := filepath.Abs(s.LocalDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{root: root, s: s}, nil
}

func (l *LocalStorage) path(objectKey string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(getFullPath(l.s.BasePath, objectKey)))
	if !strings.HasPrefix(p, l.root+string(os.PathSeparator)) {
		return "", errors.New("object key escapes storage root")
	}
	return p, nil
}

func (l *LocalStorage) Put(ctx context.Context, objectKey string, r io.Reader, _ int64, _ string) error {
	p, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return err
	}
	return f.Close()
}

func (l *LocalStorage) URL(_ context.Context, objectKey string) (string, error) {
	return strings.TrimRight(l.s.PublicURL, "/") + "/" + getFullPath(l.s.BasePath, objectKey), nil
}

func (l *LocalStorage) Delete(_ context.Context, objectKey string) error {
	p, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
