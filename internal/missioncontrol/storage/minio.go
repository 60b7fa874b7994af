// Package storage archives finished missions to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

var _ core.Archiver = (*MinIO)(nil)

// MinIO stores one JSON object per finished mission.
type MinIO struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// NewMinIO creates the archive client. It does not contact the server.
func NewMinIO(opts *options.S3Options) (*MinIO, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.UseSSL {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{
		client:     client,
		bucketName: opts.BucketName,
		prefix:     opts.Prefix,
	}, nil
}

// CheckBucket verifies connectivity and creates the bucket when it is missing.
func (p *MinIO) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ObjectKey returns the key a mission is archived under.
func (p *MinIO) ObjectKey(missionID string) string {
	return ObjectKey(p.prefix, missionID)
}

// ObjectKey joins prefix and "<missionID>.json".
func ObjectKey(prefix, missionID string) string {
	return path.Join(prefix, url.PathEscape(missionID)+".json")
}

// Archive uploads the mission snapshot, replacing any earlier archive of the same id.
func (p *MinIO) Archive(ctx context.Context, m *model.Mission) error {
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mission %s: %w", m.ID, err)
	}

	key := p.ObjectKey(m.ID)
	_, err = p.client.PutObject(ctx, p.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"mission-status": string(m.Status),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a time-limited download link for an archived mission.
func (p *MinIO) PresignedURL(ctx context.Context, missionID string, expiry time.Duration) (string, error) {
	key := p.ObjectKey(missionID)
	if _, err := p.client.StatObject(ctx, p.bucketName, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s", model.ErrArchiveNotFound, key)
		}
		return "", fmt.Errorf("failed to stat %s: %w", key, err)
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))

	presignedURL, err := p.client.PresignedGetObject(ctx, p.bucketName, key, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return presignedURL.String(), nil
}
