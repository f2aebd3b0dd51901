package objectstore

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// s3PathEscape encodes a key for use as a CopySource path segment, escaping
// each "/"-delimited component independently so the slashes themselves
// survive.
func s3PathEscape(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// S3Client is the production Client backed by the AWS SDK. It holds a single
// *s3.S3 built once at startup and reused for the life of the process.
type S3Client struct {
	svc *s3.S3
}

// NewS3Client builds an S3Client for the given region.
func NewS3Client(region string) (*S3Client, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &S3Client{svc: s3.New(sess)}, nil
}

func (c *S3Client) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	out, err := c.svc.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, newError("ListBuckets", "", "", err)
	}
	buckets := make([]BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		info := BucketInfo{Name: aws.StringValue(b.Name)}
		if b.CreationDate != nil {
			info.CreationDate = *b.CreationDate
		}
		buckets = append(buckets, info)
	}
	return buckets, nil
}

func (c *S3Client) ListObjects(ctx context.Context, bucket string, max int) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	err := c.svc.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, o := range page.Contents {
			obj := ObjectInfo{
				Key:          aws.StringValue(o.Key),
				Size:         aws.Int64Value(o.Size),
				StorageClass: aws.StringValue(o.StorageClass),
			}
			if obj.StorageClass == "" {
				obj.StorageClass = Standard
			}
			if o.LastModified != nil {
				obj.LastModified = *o.LastModified
			}
			if o.ETag != nil {
				obj.ETag = aws.StringValue(o.ETag)
			}
			objects = append(objects, obj)
			if max > 0 && len(objects) >= max {
				return false
			}
		}
		return max <= 0 || len(objects) < max
	})
	if err != nil {
		return nil, newError("ListObjects", bucket, "", err)
	}
	return objects, nil
}

func (c *S3Client) GetLifecycle(ctx context.Context, bucket string) ([]LifecycleRule, error) {
	out, err := c.svc.GetBucketLifecycleConfigurationWithContext(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == "NoSuchLifecycleConfiguration" {
			return nil, nil
		}
		return nil, newError("GetLifecycle", bucket, "", err)
	}
	rules := make([]LifecycleRule, 0, len(out.Rules))
	for _, r := range out.Rules {
		rule := LifecycleRule{
			ID:      aws.StringValue(r.ID),
			Enabled: aws.StringValue(r.Status) == s3.ExpirationStatusEnabled,
		}
		if r.Filter != nil && r.Filter.Prefix != nil {
			rule.Prefix = aws.StringValue(r.Filter.Prefix)
		} else if r.Prefix != nil {
			rule.Prefix = aws.StringValue(r.Prefix)
		}
		if r.Expiration != nil && r.Expiration.Days != nil {
			rule.ExpirationDays = int(aws.Int64Value(r.Expiration.Days))
		}
		if r.NoncurrentVersionExpiration != nil && r.NoncurrentVersionExpiration.NoncurrentDays != nil {
			rule.NoncurrentVersionExpireDays = int(aws.Int64Value(r.NoncurrentVersionExpiration.NoncurrentDays))
		}
		if r.AbortIncompleteMultipartUpload != nil && r.AbortIncompleteMultipartUpload.DaysAfterInitiation != nil {
			rule.AbortIncompleteUploadDays = int(aws.Int64Value(r.AbortIncompleteMultipartUpload.DaysAfterInitiation))
		}
		for _, t := range r.Transitions {
			if t.Days != nil {
				rule.TransitionDays = int(aws.Int64Value(t.Days))
			}
			rule.TransitionStorageClass = aws.StringValue(t.StorageClass)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (c *S3Client) PutLifecycle(ctx context.Context, bucket string, rules []LifecycleRule) error {
	s3Rules := make([]*s3.LifecycleRule, 0, len(rules))
	for i, r := range rules {
		status := s3.ExpirationStatusDisabled
		if r.Enabled {
			status = s3.ExpirationStatusEnabled
		}
		id := r.ID
		if id == "" {
			id = "rule-" + strconv.Itoa(i)
		}
		s3Rule := &s3.LifecycleRule{
			ID:     aws.String(id),
			Status: aws.String(status),
			Filter: &s3.LifecycleRuleFilter{Prefix: aws.String(r.Prefix)},
		}
		if r.ExpirationDays > 0 {
			s3Rule.Expiration = &s3.LifecycleExpiration{Days: aws.Int64(int64(r.ExpirationDays))}
		}
		if r.NoncurrentVersionExpireDays > 0 {
			s3Rule.NoncurrentVersionExpiration = &s3.NoncurrentVersionExpiration{
				NoncurrentDays: aws.Int64(int64(r.NoncurrentVersionExpireDays)),
			}
		}
		if r.AbortIncompleteUploadDays > 0 {
			s3Rule.AbortIncompleteMultipartUpload = &s3.AbortIncompleteMultipartUpload{
				DaysAfterInitiation: aws.Int64(int64(r.AbortIncompleteUploadDays)),
			}
		}
		if r.TransitionStorageClass != "" {
			s3Rule.Transitions = []*s3.Transition{{
				Days:         aws.Int64(int64(r.TransitionDays)),
				StorageClass: aws.String(r.TransitionStorageClass),
			}}
		}
		s3Rules = append(s3Rules, s3Rule)
	}
	_, err := c.svc.PutBucketLifecycleConfigurationWithContext(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucket),
		LifecycleConfiguration: &s3.BucketLifecycleConfiguration{
			Rules: s3Rules,
		},
	})
	if err != nil {
		return newError("PutLifecycle", bucket, "", err)
	}
	return nil
}

func (c *S3Client) DeleteLifecycle(ctx context.Context, bucket string) error {
	_, err := c.svc.DeleteBucketLifecycleWithContext(ctx, &s3.DeleteBucketLifecycleInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return newError("DeleteLifecycle", bucket, "", err)
	}
	return nil
}

func (c *S3Client) ListMultipartUploads(ctx context.Context, bucket, prefix string) ([]MultipartUpload, error) {
	var uploads []MultipartUpload
	input := &s3.ListMultipartUploadsInput{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	err := c.svc.ListMultipartUploadsPagesWithContext(ctx, input, func(page *s3.ListMultipartUploadsOutput, lastPage bool) bool {
		for _, u := range page.Uploads {
			up := MultipartUpload{
				Key:      aws.StringValue(u.Key),
				UploadID: aws.StringValue(u.UploadId),
			}
			if u.Initiated != nil {
				up.Initiated = *u.Initiated
			}
			uploads = append(uploads, up)
		}
		return !lastPage
	})
	if err != nil {
		return nil, newError("ListMultipartUploads", bucket, "", err)
	}
	return uploads, nil
}

func (c *S3Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := c.svc.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return newError("AbortMultipartUpload", bucket, key, err)
	}
	return nil
}

func (c *S3Client) HeadObject(ctx context.Context, bucket, key string) (ObjectMetadata, error) {
	out, err := c.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectMetadata{}, newError("HeadObject", bucket, key, err)
	}
	meta := ObjectMetadata{
		Size:         aws.Int64Value(out.ContentLength),
		StorageClass: aws.StringValue(out.StorageClass),
		ETag:         aws.StringValue(out.ETag),
	}
	if meta.StorageClass == "" {
		meta.StorageClass = Standard
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

func (c *S3Client) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	out, err := c.svc.GetObjectTaggingWithContext(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, newError("GetObjectTags", bucket, key, err)
	}
	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	return tags, nil
}

func (c *S3Client) PutObjectTags(ctx context.Context, bucket, key string, tags map[string]string) error {
	tagSet := make([]*s3.Tag, 0, len(tags))
	for k, v := range tags {
		tagSet = append(tagSet, &s3.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	_, err := c.svc.PutObjectTaggingWithContext(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Tagging: &s3.Tagging{TagSet: tagSet},
	})
	if err != nil {
		return newError("PutObjectTags", bucket, key, err)
	}
	return nil
}

// CopySelfWithClass performs the copy-object-onto-itself trick S3 requires
// to change an object's storage class in place.
func (c *S3Client) CopySelfWithClass(ctx context.Context, bucket, key, storageClass string) error {
	_, err := c.svc.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(bucket + "/" + s3PathEscape(key)),
		StorageClass:      aws.String(storageClass),
		MetadataDirective: aws.String(s3.MetadataDirectiveCopy),
	})
	if err != nil {
		return newError("CopySelfWithClass", bucket, key, err)
	}
	return nil
}

func (c *S3Client) DeleteObject(ctx context.Context, bucket, key, versionID string) error {
	input := &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if versionID != "" {
		input.VersionId = aws.String(versionID)
	}
	_, err := c.svc.DeleteObjectWithContext(ctx, input)
	if err != nil {
		return newError("DeleteObject", bucket, key, err)
	}
	return nil
}

func (c *S3Client) GetObjectRetention(ctx context.Context, bucket, key string) (ObjectRetention, error) {
	out, err := c.svc.GetObjectRetentionWithContext(ctx, &s3.GetObjectRetentionInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if KindOf(newError("GetObjectRetention", bucket, key, err)) == NotFound {
			return ObjectRetention{}, nil
		}
		return ObjectRetention{}, newError("GetObjectRetention", bucket, key, err)
	}
	ret := ObjectRetention{Set: true, Mode: aws.StringValue(out.Retention.Mode)}
	if out.Retention.RetainUntilDate != nil {
		ret.RetainUntilDate = *out.Retention.RetainUntilDate
	}
	return ret, nil
}

func (c *S3Client) GetObjectLegalHold(ctx context.Context, bucket, key string) (ObjectLegalHold, error) {
	out, err := c.svc.GetObjectLegalHoldWithContext(ctx, &s3.GetObjectLegalHoldInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if KindOf(newError("GetObjectLegalHold", bucket, key, err)) == NotFound {
			return ObjectLegalHold{}, nil
		}
		return ObjectLegalHold{}, newError("GetObjectLegalHold", bucket, key, err)
	}
	return ObjectLegalHold{Set: true, Status: aws.StringValue(out.LegalHold.Status)}, nil
}
