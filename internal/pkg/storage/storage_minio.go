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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStorage struct {
	Client *minio.Client
	s      *Storage
}

func newMinio(s *Storage) (*MinioStorage, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseTLS,
		Region: s.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorage{Client: client, s: s}, nil
}

func (m *MinioStorage) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.s.Bucket, getFullPath(m.s.BasePath, objectKey), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *MinioStorage) URL(ctx context.Context, objectKey string) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.s.Bucket, getFullPath(m.s.BasePath, objectKey), m.s.URLExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *MinioStorage) Delete(ctx context.Context, objectKey string) error {
	return m.Client.RemoveObject(ctx, m.s.Bucket, getFullPath(m.s.BasePath, objectKey), minio.RemoveObjectOptions{})
}
