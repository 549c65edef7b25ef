package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/fitly/fashion-ai/config"
)

var (
	S3Client      *s3.Client
	PresignClient *s3.PresignClient

	s3Once    sync.Once
	s3InitErr error
)

// InitS3 initializes the S3 client. The generation fan-out can hit this
// from many goroutines at once on the first request, so the init runs
// exactly once and every caller shares its result.
func InitS3() error {
	s3Once.Do(func() {
		cfg, err := config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(appConfig.AWSRegion),
		)
		if err != nil {
			s3InitErr = fmt.Errorf("unable to load SDK config, %v", err)
			return
		}

		S3Client = s3.NewFromConfig(cfg)
		PresignClient = s3.NewPresignClient(S3Client)
		log.Println("S3 Client Initialized")
	})
	return s3InitErr
}

// UploadFileToS3 uploads a file to S3 and returns the Object Key
func UploadFileToS3(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error) {
	if err := InitS3(); err != nil {
		return "", err
	}

	_, err := S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(appConfig.AWSBucketName),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	return objectKey, nil
}

// GetPresignedURL generates a presigned URL for an object
func GetPresignedURL(ctx context.Context, objectKey string) (string, error) {
	if err := InitS3(); err != nil {
		return "", err
	}

	request, err := PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(appConfig.AWSBucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %v", err)
	}

	return request.URL, nil
}

// S3ImageStore stores generated outfit images in S3 and hands back a
// presigned URL that clients can load immediately.
type S3ImageStore struct{}

func (S3ImageStore) SaveOutfitImage(ctx context.Context, sessionID string, outfitNumber int, data []byte) (string, string, error) {
	objectKey := fmt.Sprintf("generated_images/outfit_%s_%d_%d.jpg", sessionID, outfitNumber, time.Now().UnixNano())

	if _, err := UploadFileToS3(ctx, bytes.NewReader(data), objectKey, "image/jpeg"); err != nil {
		return "", "", err
	}

	url, err := GetPresignedURL(ctx, objectKey)
	if err != nil {
		return "", "", err
	}
	return url, objectKey, nil
}
