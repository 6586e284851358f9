package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/kingfluencer/backend/internal/server/config"
)

func newUploadServiceForTest() *UploadService {
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "uploads",
	}
	return NewUploadService(cfg)
}

func stubPresignSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestGetPresignedPutUrl_Success(t *testing.T) {
	svc := newUploadServiceForTest()
	stubPresignSeams(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Bucket != "uploads" {
			t.Fatalf("bucket mismatch: %q", *in.Bucket)
		}
		return &v4.PresignedHTTPRequest{URL: "http://signed/put/" + *in.Key}, nil
	}

	key, url, err := svc.GetPresignedPutUrl(context.Background())
	if err != nil {
		t.Fatalf("GetPresignedPutUrl err: %v", err)
	}
	if !strings.HasPrefix(key, "uploads/") {
		t.Fatalf("unexpected key: %q", key)
	}
	if !strings.Contains(url, key) {
		t.Fatalf("url does not reference key: %q", url)
	}
}

func TestGetPresignedPutUrl_Error(t *testing.T) {
	svc := newUploadServiceForTest()
	stubPresignSeams(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}

	_, _, err := svc.GetPresignedPutUrl(context.Background())
	if err == nil || err.Error() != "presign-fail" {
		t.Fatalf("expected presign-fail, got %v", err)
	}
}

func TestGetPresignedGetUrl_Success(t *testing.T) {
	svc := newUploadServiceForTest()
	stubPresignSeams(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://signed/get/" + *in.Key}, nil
	}

	url, err := svc.GetPresignedGetUrl(context.Background(), "uploads/2026/9/1/abc")
	if err != nil {
		t.Fatalf("GetPresignedGetUrl err: %v", err)
	}
	if url != "http://signed/get/uploads/2026/9/1/abc" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestGetPresignClient_LoadError(t *testing.T) {
	svc := newUploadServiceForTest()
	stubPresignSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, _, err := svc.GetPresignedPutUrl(context.Background())
	if err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}
