package blob

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/panoclone/internal/client/config"
	"github.com/dmitrijs2005/panoclone/internal/logging"
)

// API is the slice of the S3 client used for manual multipart control.
// Narrow on purpose so tests can substitute a fake store.
type API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// ProgressFunc receives cumulative transferred bytes after every part.
type ProgressFunc func(uploaded, total int64)

// Uploader transfers files to the session's blob store location using
// sequential multipart uploads with parts of a fixed size.
type Uploader struct {
	partSize   int64
	skipVerify bool
	log        logging.Logger

	// newAPI builds an S3 client for an endpoint; replaced in tests.
	newAPI func(ctx context.Context, endpoint string) (API, error)
}

// NewUploader builds an Uploader. partSize is clamped to the range the
// remote store accepts.
func NewUploader(partSize int64, skipVerify bool, log logging.Logger) *Uploader {
	if partSize < config.MinPartSize {
		partSize = config.MinPartSize
	}
	if partSize > config.MaxPartSize {
		partSize = config.MaxPartSize
	}
	u := &Uploader{partSize: partSize, skipVerify: skipVerify, log: log}
	u.newAPI = u.newS3Client
	return u
}

func (u *Uploader) newS3Client(ctx context.Context, endpoint string) (API, error) {
	// The upload endpoint issues scoped targets per session and does not
	// validate the signature, but the SDK still requires credentials.
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("upload", "upload", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		if u.skipVerify {
			o.HTTPClient = &http.Client{Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}}
		}
	})
	return client, nil
}

// Upload transfers localPath to the target as prefix/basename. Parts are
// numbered from 1; the ordered (number, ETag) list completes the upload.
// On any failure the multipart upload is aborted and the error returned —
// there is no part-level resume.
func (u *Uploader) Upload(ctx context.Context, target Target, localPath string, progress ProgressFunc) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	total := info.Size()

	api, err := u.newAPI(ctx, target.Endpoint)
	if err != nil {
		return err
	}

	key := target.ObjectKey(localPath)

	created, err := api.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("create multipart upload for %s: %w", key, err)
	}
	uploadID := aws.ToString(created.UploadId)

	var parts []s3types.CompletedPart
	var uploaded int64
	partNumber := int32(1)

	buf := make([]byte, u.partSize)
	for {
		n, readErr := io.ReadFull(file, buf)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			u.abort(ctx, api, target.Bucket, key, uploadID)
			return fmt.Errorf("read %s: %w", localPath, readErr)
		}

		part, err := api.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(target.Bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(partNumber),
			Body:       bytes.NewReader(buf[:n]),
		})
		if err != nil {
			u.abort(ctx, api, target.Bucket, key, uploadID)
			return fmt.Errorf("upload part %d of %s: %w", partNumber, key, err)
		}

		parts = append(parts, s3types.CompletedPart{
			ETag:       part.ETag,
			PartNumber: aws.Int32(partNumber),
		})

		uploaded += int64(n)
		if progress != nil {
			progress(uploaded, total)
		}

		if readErr == io.ErrUnexpectedEOF {
			break
		}
		partNumber++
	}

	_, err = api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(target.Bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		u.abort(ctx, api, target.Bucket, key, uploadID)
		return fmt.Errorf("complete multipart upload for %s: %w", key, err)
	}

	u.log.Debug(ctx, "object uploaded", "key", key, "bytes", uploaded, "parts", len(parts))
	return nil
}

// abort cleans up a failed multipart upload. Errors are ignored: the upload
// already failed and the server garbage-collects stale uploads.
func (u *Uploader) abort(ctx context.Context, api API, bucket, key, uploadID string) {
	_, _ = api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
}
