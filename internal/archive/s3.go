// Package archive moves slots that reached the end of their retention out of
// the relational store into object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/starrymeet/availability/internal/models"
)

// S3Archiver writes slot batches to S3 paths like:
//
//	s3://<bucket>/<prefix>/availability/YYYY/MM/DD/<rotationID>.json
type S3Archiver struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Archiver creates an S3Archiver. Region and credentials are taken from
// the environment (AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID/SECRET etc.).
func NewS3Archiver(ctx context.Context, bucket, prefix string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Archiver{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

type envelope struct {
	RotationID string                    `json:"rotationId"`
	ArchivedAt time.Time                 `json:"archivedAt"`
	Count      int                       `json:"count"`
	Slots      []models.AvailabilitySlot `json:"slots"`
}

// ArchiveSlots uploads one JSON batch and returns the object key.
func (a *S3Archiver) ArchiveSlots(ctx context.Context, rotationID string, day time.Time, slots []models.AvailabilitySlot) (string, error) {
	if len(slots) == 0 {
		return "", fmt.Errorf("no slots to archive")
	}

	body, err := json.Marshal(envelope{
		RotationID: rotationID,
		ArchivedAt: day.UTC(),
		Count:      len(slots),
		Slots:      slots,
	})
	if err != nil {
		return "", fmt.Errorf("marshal archive batch: %w", err)
	}

	year, month, dayOfMonth := day.UTC().Date()
	key := path.Join(a.prefix, "availability",
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", int(month)),
		fmt.Sprintf("%02d", dayOfMonth),
		fmt.Sprintf("%s.json", rotationID),
	)

	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return key, nil
}
