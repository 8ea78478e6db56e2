package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const uploadURLExpiry = 5 * time.Minute

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Presigner signs S3 upload requests
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectChecker confirms that an uploaded object exists
type ObjectChecker interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// NewS3Client builds an S3 client. Static keys and a custom endpoint are optional.
func NewS3Client(ctx context.Context, region, accessKey, secretKey, endpoint string) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PhotoURL  string `json:"photo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// ConfirmUploadRequest is sent once the client has finished the PUT
type ConfirmUploadRequest struct {
	Key string `json:"key"`
}

// PhotoService issues upload URLs for profile photos
type PhotoService struct {
	users     UserStore
	presigner Presigner
	objects   ObjectChecker
	bucket    string
	region    string
	endpoint  string
}

// NewPhotoService creates a new photo service
func NewPhotoService(users UserStore, presigner Presigner, objects ObjectChecker, bucket, region, endpoint string) *PhotoService {
	return &PhotoService{
		users:     users,
		presigner: presigner,
		objects:   objects,
		bucket:    bucket,
		region:    region,
		endpoint:  strings.TrimRight(endpoint, "/"),
	}
}

// ObjectURL returns the public URL of key
func (s *PhotoService) ObjectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// RequestProfileUpload presigns a PUT for a new profile photo. photo_url is left
// unchanged until ConfirmProfileUpload.
func (s *PhotoService) RequestProfileUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if s.presigner == nil || s.bucket == "" {
		return nil, models.NewValidationError("photo uploads are not configured")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, models.NewValidationError("content type must be image/jpeg, image/png or image/webp")
	}

	// Key: profile-photos/{user_id}/{photo_id}.{ext}
	key := fmt.Sprintf("profile-photos/%s/%s.%s", userID, uuid.New().String(), ext)

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	log.Info().Str("user_id", userID).Str("key", key).Msg("Profile photo upload URL issued")

	return &UploadResponse{
		UploadURL: request.URL,
		Key:       key,
		PhotoURL:  s.ObjectURL(key),
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

// ConfirmProfileUpload points the user's photo_url at key once the object exists in the bucket
func (s *PhotoService) ConfirmProfileUpload(ctx context.Context, userID, key string) (*models.User, error) {
	if s.objects == nil || s.bucket == "" {
		return nil, models.NewValidationError("photo uploads are not configured")
	}
	if !ownsPhotoKey(userID, key) {
		return nil, models.NewValidationError("key is not a profile photo upload for this user")
	}

	if _, err := s.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		var missing *types.NotFound
		if errors.As(err, &missing) {
			return nil, models.NewValidationError("photo has not been uploaded")
		}
		return nil, fmt.Errorf("failed to check uploaded photo: %w", err)
	}

	photoURL := s.ObjectURL(key)
	if err := s.users.UpdatePhotoURL(ctx, userID, photoURL); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("user", userID)
		}
		return nil, fmt.Errorf("failed to update photo url: %w", err)
	}

	log.Info().Str("user_id", userID).Str("key", key).Msg("Profile photo confirmed")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// ownsPhotoKey matches keys of the form profile-photos/{user_id}/{photo_id}.{ext}
func ownsPhotoKey(userID, key string) bool {
	prefix := "profile-photos/" + userID + "/"
	if userID == "" || !strings.HasPrefix(key, prefix) {
		return false
	}
	name := strings.TrimPrefix(key, prefix)
	dot := strings.LastIndex(name, ".")
	if dot <= 0 || strings.ContainsAny(name, "/\\") {
		return false
	}
	if _, err := uuid.Parse(name[:dot]); err != nil {
		return false
	}
	for _, ext := range photoExtensions {
		if name[dot+1:] == ext {
			return true
		}
	}
	return false
}
