package objectstore

import (
	"context"
	"time"
)

// Standard is the default storage class objects report when the provider
// omits one (e.g. ListObjectsV2 leaves StorageClass empty for STANDARD).
const Standard = "STANDARD"

// BucketInfo is the result of a single ListBuckets entry.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// ObjectInfo is the result of a single ListObjects entry.
type ObjectInfo struct {
	Key          string
	Size         int64
	StorageClass string
	LastModified time.Time
	ETag         string
}

// LifecycleRule is a narrowed view of an S3 lifecycle rule: just enough for
// the scanner to decide whether a bucket already has one and the executor to
// write one.
type LifecycleRule struct {
	ID                         string
	Prefix                     string
	Enabled                    bool
	ExpirationDays             int
	NoncurrentVersionExpireDays int
	AbortIncompleteUploadDays  int
	TransitionDays             int
	TransitionStorageClass     string
}

// MultipartUpload is a single in-flight (uncompleted) multipart upload.
type MultipartUpload struct {
	Key       string
	UploadID  string
	Initiated time.Time
}

// ObjectMetadata is the result of a HeadObject call.
type ObjectMetadata struct {
	Size         int64
	StorageClass string
	LastModified time.Time
	ETag         string
}

// ObjectRetention is the result of GetObjectRetention.
type ObjectRetention struct {
	Mode            string
	RetainUntilDate time.Time
	Set             bool
}

// ObjectLegalHold is the result of GetObjectLegalHold.
type ObjectLegalHold struct {
	Status string
	Set    bool
}

// Client is the complete verb surface the scanner, executor, and rollback
// manager use to talk to the object store. No caller imports the
// AWS SDK directly; everything routes through here so a failure always
// comes back as an *Error with a Kind the callers can branch on.
type Client interface {
	ListBuckets(ctx context.Context) ([]BucketInfo, error)
	ListObjects(ctx context.Context, bucket string, max int) ([]ObjectInfo, error)

	GetLifecycle(ctx context.Context, bucket string) ([]LifecycleRule, error)
	PutLifecycle(ctx context.Context, bucket string, rules []LifecycleRule) error
	DeleteLifecycle(ctx context.Context, bucket string) error

	ListMultipartUploads(ctx context.Context, bucket, prefix string) ([]MultipartUpload, error)
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error

	HeadObject(ctx context.Context, bucket, key string) (ObjectMetadata, error)
	GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error)
	PutObjectTags(ctx context.Context, bucket, key string, tags map[string]string) error

	CopySelfWithClass(ctx context.Context, bucket, key, storageClass string) error
	DeleteObject(ctx context.Context, bucket, key, versionID string) error

	GetObjectRetention(ctx context.Context, bucket, key string) (ObjectRetention, error)
	GetObjectLegalHold(ctx context.Context, bucket, key string) (ObjectLegalHold, error)
}
