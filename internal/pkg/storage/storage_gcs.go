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
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStorage struct {
	Client *storage.Client
	Bucket *storage.BucketHandle
	s      *Storage
}

func newGCS(ctx context.Context, s *Storage) (*GCSStorage, error) {
	var opts []option.ClientOption
	if s.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.CredentialsFile))
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStorage{
		Client: client,
		Bucket: client.Bucket(s.Bucket),
		s:      s,
	}, nil
}

func (g *GCSStorage) Put(ctx context.Context, objectKey string, r io.Reader, _ int64, contentType string) error {
	writer := g.Bucket.Object(getFullPath(g.s.BasePath, objectKey)).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (g *GCSStorage) URL(_ context.Context, objectKey string) (string, error) {
	return g.Bucket.SignedURL(getFullPath(g.s.BasePath, objectKey), &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(g.s.URLExpiry),
		Scheme:  storage.SigningSchemeV4,
	})
}

func (g *GCSStorage) Delete(ctx context.Context, objectKey string) error {
	return g.Bucket.Object(getFullPath(g.s.BasePath, objectKey)).Delete(ctx)
}
