package config

import (
	"context"
	"fmt"

	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/blob"
	"github.com/kyberchat/kyberchat/pkg/blob/filesystem"
	blobs3 "github.com/kyberchat/kyberchat/pkg/blob/s3"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// CreateStore opens the relational store from the database section.
// The store runs its schema migrations on open.
func CreateStore(cfg *Config) (store.Store, error) {
	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return st, nil
}

// CreateBlobStore creates the attachment store selected by uploads.backend.
func CreateBlobStore(ctx context.Context, cfg UploadsConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "filesystem", "":
		return filesystem.New(cfg.Path)
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 uploads backend requires bucket to be set")
		}
		return blobs3.NewFromConfig(ctx, blobs3.Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			KeyPrefix:      cfg.S3.KeyPrefix,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown uploads backend: %q", cfg.Backend)
	}
}

// CreateJWTService builds the token service from the auth section.
// Fails when the JWT secret is missing or shorter than 32 characters.
func (c *Config) CreateJWTService() (*auth.JWTService, error) {
	return auth.NewJWTService(auth.JWTConfig{
		Secret:               c.Auth.JWTSecret,
		AccessTokenDuration:  c.Auth.AccessTokenTTL,
		RefreshTokenDuration: c.Auth.RefreshTokenTTL,
	})
}
