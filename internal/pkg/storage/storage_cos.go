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
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type COSStorage struct {
	Client *cos.Client
	s      *Storage
}

func newCOS(s *Storage) (*COSStorage, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, err
	}
	// endpoint may be the region host, the bucket URL needs the bucket prefix
	if s.Bucket != "" && u.Host != "" {
		u, err = url.Parse("https://" + s.Bucket + "." + u.Host)
		if err != nil {
			return nil, err
		}
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  s.AccessKey,
			SecretKey: s.SecretKey,
		},
	})
	return &COSStorage{Client: client, s: s}, nil
}

func (c *COSStorage) Put(ctx context.Context, objectKey string, r io.Reader, _ int64, contentType string) error {
	_, err := c.Client.Object.Put(ctx, getFullPath(c.s.BasePath, objectKey), r, &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		},
	})
	return err
}

func (c *COSStorage) URL(ctx context.Context, objectKey string) (string, error) {
	u, err := c.Client.Object.GetPresignedURL(ctx, http.MethodGet, getFullPath(c.s.BasePath, objectKey),
		c.s.AccessKey, c.s.SecretKey, c.s.URLExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *COSStorage) Delete(ctx context.Context, objectKey string) error {
	_, err := c.Client.Object.Delete(ctx, getFullPath(c.s.BasePath, objectKey))
	return err
}
