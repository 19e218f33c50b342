package bigio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/file.bw")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/file.bw", key)

	_, _, err = parseS3URL("http://not-s3/file.bw")
	assert.Error(t, err)

	_, _, err = parseS3URL("s3://bucket-with-no-key")
	assert.Error(t, err)
}
