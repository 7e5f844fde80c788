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
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
	ProviderGCS   = "gcs"
	ProviderOSS   = "oss"
	ProviderCOS   = "cos"
)

// Provider stores certificate blobs. Object keys are relative to BasePath.
type Provider interface {
	// Put stores r under objectKey. size may be -1 when unknown.
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error
	// URL returns a retrievable link for objectKey.
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

// Storage is the blob store configuration.
type Storage struct {
	Provider        string        `mapstructure:"provider"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKey       string        `mapstructure:"accessKey"`
	SecretKey       string        `mapstructure:"secretKey"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	BasePath        string        `mapstructure:"basePath"`
	UseTLS          bool          `mapstructure:"useTLS"`
	CredentialsFile string        `mapstructure:"credentialsFile"` // gcs service account
	LocalDir        string        `mapstructure:"localDir"`
	PublicURL       string        `mapstructure:"publicUrl"` // local backend link prefix
	URLExpiry       time.Duration `mapstructure:"urlExpiry"`
	MaxUploadSize   int64         `mapstructure:"maxUploadSize"`
}

func (s *Storage) SetDefaults() {
	if s.Provider == "" {
		s.Provider = ProviderLocal
	}
	if s.BasePath == "" {
		s.BasePath = "certificates"
	}
	if s.LocalDir == "" {
		s.LocalDir = "data/blobs"
	}
	if s.PublicURL == "" {
		s.PublicURL = "/files"
	}
	if s.URLExpiry <= 0 {
		// longest expiry accepted by SigV4 presigning
		s.URLExpiry = 7 * 24 * time.Hour
	}
	if s.MaxUploadSize <= 0 {
		s.MaxUploadSize = 20 * 1024 * 1024
	}
}

// NewProvider builds the backend named by conf.Provider.
func NewProvider(ctx context.Context, conf Storage) (Provider, error) {
	conf.SetDefaults()
	switch strings.ToLower(conf.Provider) {
	case ProviderLocal:
		return newLocal(&conf)
	case ProviderS3:
		return newS3(ctx, &conf)
	case ProviderMinio:
		return newMinio(&conf)
	case ProviderGCS:
		return newGCS(ctx, &conf)
	case ProviderOSS:
		return newOSS(&conf)
	case ProviderCOS:
		return newCOS(&conf)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", conf.Provider)
	}
}

func getFullPath(basePath, objectKey string) string {
	if basePath == "" {
		return strings.TrimPrefix(objectKey, "/")
	}
	return path.Join(strings.Trim(basePath, "/"), objectKey)
}
