package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presignerStub struct {
	input   *s3.PutObjectInput
	expires time.Duration
	err     error
}

func (p *presignerStub) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.input = params
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + *params.Key, Method: "PUT"}, nil
}

// bucketStub answers HeadObject for the keys it holds
type bucketStub struct {
	keys map[string]bool
	err  error
}

func (b *bucketStub) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.keys[*params.Key] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestPhotoService_RequestProfileUpload(t *testing.T) {
	store := newMemStore()
	seedUsers(store, "u1")
	presigner := &presignerStub{}
	svc := NewPhotoService(memUsers{store}, presigner, &bucketStub{}, "photos", "us-west-2", "")

	res, err := svc.RequestProfileUpload(context.Background(), "u1", "image/png")
	require.NoError(t, err)

	require.NotNil(t, presigner.input)
	key := *presigner.input.Key
	assert.True(t, strings.HasPrefix(key, "profile-photos/u1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "photos", *presigner.input.Bucket)
	assert.Equal(t, 5*time.Minute, presigner.expires)

	assert.Equal(t, 300, res.ExpiresIn)
	assert.Equal(t, key, res.Key)
	assert.Equal(t, "https://photos.s3.us-west-2.amazonaws.com/"+key, res.PhotoURL)
	assert.Empty(t, store.user("u1").PhotoURL)
}

func TestPhotoService_ConfirmProfileUpload(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUsers(store, "u1", "u2")
	bucket := &bucketStub{keys: map[string]bool{}}
	svc := NewPhotoService(memUsers{store}, &presignerStub{}, bucket, "photos", "us-west-2", "")

	res, err := svc.RequestProfileUpload(ctx, "u1", "image/jpeg")
	require.NoError(t, err)

	_, err = svc.ConfirmProfileUpload(ctx, "u1", res.Key)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	assert.Empty(t, store.user("u1").PhotoURL)

	bucket.keys[res.Key] = true

	_, err = svc.ConfirmProfileUpload(ctx, "u2", res.Key)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	assert.Empty(t, store.user("u2").PhotoURL)

	user, err := svc.ConfirmProfileUpload(ctx, "u1", res.Key)
	require.NoError(t, err)
	assert.Equal(t, res.PhotoURL, user.PhotoURL)
	assert.Equal(t, res.PhotoURL, store.user("u1").PhotoURL)
}

func TestPhotoService_ConfirmRejectsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUsers(store, "u1")
	bucket := &bucketStub{keys: map[string]bool{}}
	svc := NewPhotoService(memUsers{store}, &presignerStub{}, bucket, "photos", "us-west-2", "")

	photoID := "0b7e4c1a-3f5d-4f7e-9a53-6a1d2c3b4e5f"
	for _, key := range []string{
		"",
		"profile-photos/u1/",
		"profile-photos/u1/" + photoID + ".gif",
		"profile-photos/u1/not-a-uuid.jpg",
		"profile-photos/u1/../u2/" + photoID + ".jpg",
		"other/u1/" + photoID + ".jpg",
	} {
		bucket.keys[key] = true
		_, err := svc.ConfirmProfileUpload(ctx, "u1", key)
		assert.True(t, models.HasCode(err, models.CodeValidation), key)
	}

	bucket.err = errors.New("timeout")
	_, err := svc.ConfirmProfileUpload(ctx, "u1", "profile-photos/u1/"+photoID+".webp")
	require.Error(t, err)
	assert.False(t, models.HasCode(err, models.CodeValidation))
	assert.Empty(t, store.user("u1").PhotoURL)
}

func TestPhotoService_CustomEndpointURL(t *testing.T) {
	svc := NewPhotoService(nil, nil, nil, "photos", "us-east-1", "http://localhost:9000/")
	assert.Equal(t, "http://localhost:9000/photos/a/b.jpg", svc.ObjectURL("a/b.jpg"))
}

func TestPhotoService_Errors(t *testing.T) {
	store := newMemStore()
	seedUsers(store, "u1")

	svc := NewPhotoService(memUsers{store}, &presignerStub{}, &bucketStub{}, "photos", "us-east-1", "")
	_, err := svc.RequestProfileUpload(context.Background(), "u1", "application/pdf")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	key := "profile-photos/ghost/0b7e4c1a-3f5d-4f7e-9a53-6a1d2c3b4e5f.jpg"
	svc = NewPhotoService(memUsers{store}, &presignerStub{}, &bucketStub{keys: map[string]bool{key: true}}, "photos", "us-east-1", "")
	_, err = svc.ConfirmProfileUpload(context.Background(), "ghost", key)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	svc = NewPhotoService(memUsers{store}, &presignerStub{err: errors.New("no creds")}, nil, "photos", "us-east-1", "")
	_, err = svc.RequestProfileUpload(context.Background(), "u1", "")
	assert.Error(t, err)

	svc = NewPhotoService(memUsers{store}, nil, nil, "", "", "")
	_, err = svc.RequestProfileUpload(context.Background(), "u1", "")
	assert.True(t, models.HasCode(err, models.CodeValidation))
	_, err = svc.ConfirmProfileUpload(context.Background(), "u1", key)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
