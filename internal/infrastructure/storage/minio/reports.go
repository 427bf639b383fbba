package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/refresh"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

const reportPrefix = "refresh-reports/"

// ReportArchiver stores each refresh run as a timestamped JSON object.
type ReportArchiver struct {
	client *Client
	logger logging.Logger
}

func NewReportArchiver(client *Client, log logging.Logger) *ReportArchiver {
	return &ReportArchiver{client: client, logger: log}
}

func (a *ReportArchiver) Archive(ctx context.Context, r *refresh.Report) error {
	if r == nil {
		return errors.New(errors.ErrCodeValidation, "report required")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report")
	}

	key := reportPrefix + r.StartedAt.UTC().Format("20060102T150405Z") + ".json"
	_, err = a.client.api.PutObject(ctx, a.client.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to store report").
			WithDetail(key)
	}

	a.logger.Info("refresh report archived",
		logging.String("object", key),
		logging.Int("sources", len(r.Sources)))
	return nil
}

// ListReports returns archived report object keys, newest first.
func (a *ReportArchiver) ListReports(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range a.client.api.ListObjects(ctx, a.client.bucket, minio.ListObjectsOptions{
		Prefix:    reportPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "failed to list reports")
		}
		keys = append(keys, obj.Key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// FetchReport reads one archived report back.
func (a *ReportArchiver) FetchReport(ctx context.Context, key string) (*refresh.Report, error) {
	obj, err := a.client.api.GetObject(ctx, a.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch report").
			WithDetail(key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read report").
			WithDetail(key)
	}
	var r refresh.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode report")
	}
	return &r, nil
}
