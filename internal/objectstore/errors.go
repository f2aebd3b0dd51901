// Package objectstore is the narrow verb surface this process uses to talk
// to the object store. Every scanner read, executor action, and rollback
// step goes through the Client interface here rather than touching the AWS
// SDK directly, so the rest of the module never has to know what "AWS error
// code 404 vs 403" means.
package objectstore

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

// ErrorKind classifies a Client failure into the handful of shapes the
// scanner, executor, and rollback manager actually branch on. Everything that doesn't
// map to a specific kind is Other.
type ErrorKind int

const (
	Other ErrorKind = iota
	NotFound
	AccessDenied
	InvalidState
	Locked
	Transient
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case AccessDenied:
		return "ACCESS_DENIED"
	case InvalidState:
		return "INVALID_STATE"
	case Locked:
		return "LOCKED"
	case Transient:
		return "TRANSIENT"
	default:
		return "OTHER"
	}
}

// Error wraps an underlying object store failure with the classification
// callers actually need to act on.
type Error struct {
	Kind    ErrorKind
	Op      string
	Bucket  string
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return e.Op + " " + e.Bucket + "/" + e.Key + ": " + e.Message
	}
	return e.Op + " " + e.Bucket + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf classifies err using the same code table the rest of the pack's
// AWS SDK v1 callers check via awserr.Error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return Other
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return Other
	}
	switch aerr.Code() {
	case "NoSuchBucket", "NoSuchKey", "NoSuchLifecycleConfiguration", "NoSuchUpload", "NotFound", "NoSuchTagSet":
		return NotFound
	case "AccessDenied", "Forbidden", "AllAccessDisabled":
		return AccessDenied
	case "InvalidObjectState", "InvalidBucketState":
		return InvalidState
	case "ObjectLockConfigurationNotFoundError":
		return NotFound
	case "RequestTimeout", "RequestTimeTooSkewed", "SlowDown", "ServiceUnavailable", "ThrottlingException":
		return Transient
	}
	if isLockedMessage(aerr.Message()) {
		return Locked
	}
	return Other
}

func isLockedMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "object is locked") || strings.Contains(lower, "legal hold")
}

func newError(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	msg := err.Error()
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		msg = aerr.Message()
	}
	return &Error{Kind: kind, Op: op, Bucket: bucket, Key: key, Message: msg, Cause: err}
}
