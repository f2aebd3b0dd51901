package executor

import "github.com/coldstore/sentinel/internal/models"

// requiredPermissions is the admission-control input for each
// recommendation type.
var requiredPermissions = map[models.RecommendationType][]string{
	models.ChangeStorageClass:     {"s3:GetObject", "s3:PutObject"},
	models.AddLifecyclePolicy:     {"s3:GetLifecycleConfiguration", "s3:PutLifecycleConfiguration"},
	models.DeleteIncompleteUpload: {"s3:ListMultipartUploads", "s3:AbortMultipartUpload"},
	models.DeleteStaleObject:      {"s3:GetObject", "s3:DeleteObject"},
}

// RequiredPermissionsFor returns the permission list an action of type t
// needs, or an empty slice if t has none defined (e.g. DELETE_OLD_VERSION,
// for which performAction has no action verb).
func RequiredPermissionsFor(t models.RecommendationType) []string {
	perms := requiredPermissions[t]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
