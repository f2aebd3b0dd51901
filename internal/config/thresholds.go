package config

// ScannerThresholds parameterizes the four analyzers. All defaults
// match the source Python implementation's constants.
type ScannerThresholds struct {
	StaleDays                  int
	VeryStaleDays              int
	PrefixAggregationStaleDays int
	PrefixAggregationMinCount  int
	MultipartAgeDays           int
	MinObjectBytesToScore      int64
	LargeObjectBytes           int64
	ApprovalRequiredBytes      int64
	MaxObjectsPerBucket        int // 0 means unlimited
	BucketPrefixSkipList       []string
	BucketFanOut               int
}

func loadScannerThresholds() ScannerThresholds {
	return ScannerThresholds{
		StaleDays:                 getEnvInt("SCANNER_STALE_DAYS", 90),
		VeryStaleDays:              getEnvInt("SCANNER_VERY_STALE_DAYS", 365),
		PrefixAggregationStaleDays: getEnvInt("SCANNER_PREFIX_STALE_DAYS", 180),
		PrefixAggregationMinCount:  getEnvInt("SCANNER_PREFIX_MIN_COUNT", 10),
		MultipartAgeDays:           getEnvInt("SCANNER_MULTIPART_AGE_DAYS", 7),
		MinObjectBytesToScore:      int64(getEnvInt("SCANNER_MIN_OBJECT_BYTES", 1024*1024)),
		LargeObjectBytes:           int64(getEnvInt("SCANNER_LARGE_OBJECT_BYTES", 128*1024)),
		ApprovalRequiredBytes:      int64(getEnvInt("SCANNER_APPROVAL_BYTES", 10*1024*1024*1024)),
		MaxObjectsPerBucket:        getEnvInt("SCANNER_MAX_OBJECTS_PER_BUCKET", 1000),
		BucketPrefixSkipList:       getEnvStringList("SCANNER_BUCKET_PREFIX_SKIP_LIST"),
		BucketFanOut:               getEnvInt("SCANNER_BUCKET_FAN_OUT", 8),
	}
}
