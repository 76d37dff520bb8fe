package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestUploadReport(t *testing.T) {
	up := &fakeUploader{}
	c := &S3Client{uploader: up, bucketName: "finfinder-reports", prefix: "runs"}

	url, err := c.UploadReport(context.Background(), "finfinder-report-x.json", []byte(`{"report":{}}`))
	require.NoError(t, err)

	assert.Equal(t, "s3://finfinder-reports/runs/finfinder-report-x.json", url)
	assert.Equal(t, "runs/finfinder-report-x.json", *up.input.Key)
	assert.Equal(t, "application/json", *up.input.ContentType)
	assert.Equal(t, `{"report":{}}`, string(up.body))
}

func TestUploadReportErrors(t *testing.T) {
	_, err := (&S3Client{uploader: &fakeUploader{}}).UploadReport(context.Background(), "r.json", nil)
	assert.ErrorContains(t, err, "bucket not configured")

	up := &fakeUploader{err: errors.New("AccessDenied")}
	_, err = (&S3Client{uploader: up, bucketName: "b"}).UploadReport(context.Background(), "r.json", nil)
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "r.json", (&S3Client{}).ReportKey("r.json"))
	assert.Equal(t, "a/b/r.json", (&S3Client{prefix: "a/b"}).ReportKey("r.json"))
}
