package fhe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	gethcommon "github.com/luxfi/geth/common"
)

// objectAPI is the part of *s3.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config holds the object storage settings (MinIO or AWS).
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store keeps ciphertexts as objects under ciphertexts/ and each ACL
// grant as an empty marker object under acl/<handle>/<identity>.
type S3Store struct {
	api    objectAPI
	bucket string
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.User, c.Password, "")))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{api: client, bucket: c.Bucket}, nil
}

func ciphertextKey(handle gethcommon.Hash) string {
	return "ciphertexts/" + strings.TrimPrefix(handle.Hex(), "0x")
}

func aclKey(handle gethcommon.Hash, identity gethcommon.Address) string {
	return "acl/" + strings.TrimPrefix(handle.Hex(), "0x") + "/" + strings.ToLower(strings.TrimPrefix(identity.Hex(), "0x"))
}

func (s *S3Store) PutCiphertext(ctx context.Context, handle gethcommon.Hash, ciphertext []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ciphertextKey(handle)),
		Body:   bytes.NewReader(ciphertext),
	})
	if err != nil {
		return fmt.Errorf("s3 put ciphertext: %w", err)
	}
	return nil
}

func (s *S3Store) GetCiphertext(ctx context.Context, handle gethcommon.Hash) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ciphertextKey(handle)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 get ciphertext: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read ciphertext: %w", err)
	}
	return b, nil
}

func (s *S3Store) Grant(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(aclKey(handle, identity)),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("s3 put grant: %w", err)
	}
	return nil
}

// Revoke deletes the grant marker. S3 deletes of missing keys succeed.
func (s *S3Store) Revoke(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(aclKey(handle, identity)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete grant: %w", err)
	}
	return nil
}

func (s *S3Store) Allowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(aclKey(handle, identity)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head grant: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
