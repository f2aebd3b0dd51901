package objectstore

import (
	"context"
	"errors"
)

// FakeClient is an in-memory Client used by the scanner, executor,
// rollback, and httpapi test suites. It is not behind a build tag; production code
// never references it.
type FakeClient struct {
	Buckets           []BucketInfo
	Objects           map[string][]ObjectInfo
	Lifecycles        map[string][]LifecycleRule
	MultipartUploads  map[string][]MultipartUpload
	Tags              map[string]map[string]string
	Retention         map[string]ObjectRetention
	LegalHold         map[string]ObjectLegalHold

	// CopyCalls and DeleteCalls record mutating calls for assertions.
	CopyCalls   []string
	DeleteCalls []string

	// FailOn, when non-nil, is consulted before an operation runs. It
	// returns a non-nil error to force that call to fail.
	FailOn func(op, bucket, key string) error
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Objects:          map[string][]ObjectInfo{},
		Lifecycles:       map[string][]LifecycleRule{},
		MultipartUploads: map[string][]MultipartUpload{},
		Tags:             map[string]map[string]string{},
		Retention:        map[string]ObjectRetention{},
		LegalHold:        map[string]ObjectLegalHold{},
	}
}

func tagKey(bucket, key string) string { return bucket + "\x00" + key }

func (f *FakeClient) fail(op, bucket, key string) error {
	if f.FailOn == nil {
		return nil
	}
	return f.FailOn(op, bucket, key)
}

func (f *FakeClient) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	if err := f.fail("ListBuckets", "", ""); err != nil {
		return nil, err
	}
	return f.Buckets, nil
}

func (f *FakeClient) ListObjects(ctx context.Context, bucket string, max int) ([]ObjectInfo, error) {
	if err := f.fail("ListObjects", bucket, ""); err != nil {
		return nil, err
	}
	objs := f.Objects[bucket]
	if max > 0 && len(objs) > max {
		objs = objs[:max]
	}
	out := make([]ObjectInfo, len(objs))
	copy(out, objs)
	return out, nil
}

func (f *FakeClient) GetLifecycle(ctx context.Context, bucket string) ([]LifecycleRule, error) {
	if err := f.fail("GetLifecycle", bucket, ""); err != nil {
		return nil, err
	}
	return f.Lifecycles[bucket], nil
}

func (f *FakeClient) PutLifecycle(ctx context.Context, bucket string, rules []LifecycleRule) error {
	if err := f.fail("PutLifecycle", bucket, ""); err != nil {
		return err
	}
	f.Lifecycles[bucket] = rules
	return nil
}

func (f *FakeClient) DeleteLifecycle(ctx context.Context, bucket string) error {
	if err := f.fail("DeleteLifecycle", bucket, ""); err != nil {
		return err
	}
	delete(f.Lifecycles, bucket)
	return nil
}

func (f *FakeClient) ListMultipartUploads(ctx context.Context, bucket, prefix string) ([]MultipartUpload, error) {
	if err := f.fail("ListMultipartUploads", bucket, ""); err != nil {
		return nil, err
	}
	var out []MultipartUpload
	for _, u := range f.MultipartUploads[bucket] {
		if prefix == "" || len(u.Key) >= len(prefix) && u.Key[:len(prefix)] == prefix {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *FakeClient) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := f.fail("AbortMultipartUpload", bucket, key); err != nil {
		return err
	}
	ups := f.MultipartUploads[bucket]
	for i, u := range ups {
		if u.Key == key && u.UploadID == uploadID {
			f.MultipartUploads[bucket] = append(ups[:i], ups[i+1:]...)
			return nil
		}
	}
	return &Error{Kind: NotFound, Op: "AbortMultipartUpload", Bucket: bucket, Key: key, Message: "upload not found"}
}

func (f *FakeClient) HeadObject(ctx context.Context, bucket, key string) (ObjectMetadata, error) {
	if err := f.fail("HeadObject", bucket, key); err != nil {
		return ObjectMetadata{}, err
	}
	for _, o := range f.Objects[bucket] {
		if o.Key == key {
			return ObjectMetadata{Size: o.Size, StorageClass: o.StorageClass, LastModified: o.LastModified, ETag: o.ETag}, nil
		}
	}
	return ObjectMetadata{}, &Error{Kind: NotFound, Op: "HeadObject", Bucket: bucket, Key: key, Message: "not found"}
}

func (f *FakeClient) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	if err := f.fail("GetObjectTags", bucket, key); err != nil {
		return nil, err
	}
	return f.Tags[tagKey(bucket, key)], nil
}

func (f *FakeClient) PutObjectTags(ctx context.Context, bucket, key string, tags map[string]string) error {
	if err := f.fail("PutObjectTags", bucket, key); err != nil {
		return err
	}
	f.Tags[tagKey(bucket, key)] = tags
	return nil
}

func (f *FakeClient) CopySelfWithClass(ctx context.Context, bucket, key, storageClass string) error {
	if err := f.fail("CopySelfWithClass", bucket, key); err != nil {
		return err
	}
	f.CopyCalls = append(f.CopyCalls, bucket+"/"+key+"->"+storageClass)
	objs := f.Objects[bucket]
	for i, o := range objs {
		if o.Key == key {
			objs[i].StorageClass = storageClass
			return nil
		}
	}
	return errors.New("object not found in fake store")
}

func (f *FakeClient) DeleteObject(ctx context.Context, bucket, key, versionID string) error {
	if err := f.fail("DeleteObject", bucket, key); err != nil {
		return err
	}
	f.DeleteCalls = append(f.DeleteCalls, bucket+"/"+key)
	objs := f.Objects[bucket]
	for i, o := range objs {
		if o.Key == key {
			f.Objects[bucket] = append(objs[:i], objs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *FakeClient) GetObjectRetention(ctx context.Context, bucket, key string) (ObjectRetention, error) {
	if err := f.fail("GetObjectRetention", bucket, key); err != nil {
		return ObjectRetention{}, err
	}
	return f.Retention[tagKey(bucket, key)], nil
}

func (f *FakeClient) GetObjectLegalHold(ctx context.Context, bucket, key string) (ObjectLegalHold, error) {
	if err := f.fail("GetObjectLegalHold", bucket, key); err != nil {
		return ObjectLegalHold{}, err
	}
	return f.LegalHold[tagKey(bucket, key)], nil
}

var _ Client = (*FakeClient)(nil)
