package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/logging"
	sc "github.com/dmitrijs2005/questboard/internal/server/config"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/google/uuid"
)

// Seams over the AWS SDK, replaced in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const picturesPrefix = "pictures/"

// Upload is where a client PUTs a picture.
type Upload struct {
	Key string
	URL string
}

// MediaService presigns profile picture uploads and downloads against an
// S3-compatible bucket. It never touches object bodies itself.
type MediaService struct {
	config *sc.Config
	now    Clock
	logger logging.Logger
}

func NewMediaService(config *sc.Config, now Clock, logger logging.Logger) *MediaService {
	return &MediaService{config: config, now: orNow(now), logger: logger.With("module", "media")}
}

// PictureKey returns a fresh object key under pictures/{userID}/.
func (s *MediaService) PictureKey(userID string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s%s/%04d%02d%02d-%s", picturesPrefix, userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *MediaService) validity() time.Duration {
	if s.config.PresignValidityDuration > 0 {
		return s.config.PresignValidityDuration
	}
	return 15 * time.Minute
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return newS3PresignClient(client), nil
}

// RequestPictureUpload presigns a PUT for a new picture of id.
func (s *MediaService) RequestPictureUpload(ctx context.Context, id session.Identity) (Upload, error) {
	if !id.SignedIn() {
		return Upload{}, common.ErrorUnauthorized
	}
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: presign client: %v", common.ErrorInternal, err)
	}

	key := s.PictureKey(id.UserID)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.validity()))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: presign put: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "picture upload presigned", "user_id", id.UserID, "key", key)
	return Upload{Key: key, URL: req.URL}, nil
}

// PictureURL presigns a GET for a picture key.
func (s *MediaService) PictureURL(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, picturesPrefix) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: not a picture key", common.ErrValidation)
	}
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: presign client: %v", common.ErrorInternal, err)
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.validity()))
	if err != nil {
		return "", fmt.Errorf("%w: presign get: %v", common.ErrorInternal, err)
	}
	return req.URL, nil
}
