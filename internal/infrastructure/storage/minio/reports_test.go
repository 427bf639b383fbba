package minio

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/refresh"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

type mockMinIOAPI struct {
	buckets map[string]bool
	objects map[string][]byte
}

func newMockMinIOAPI() *mockMinIOAPI {
	return &mockMinIOAPI{
		buckets: map[string]bool{"intel-reports": true},
		objects: map[string][]byte{},
	}
}

func (m *mockMinIOAPI) BucketExists(_ context.Context, name string) (bool, error) {
	return m.buckets[name], nil
}

func (m *mockMinIOAPI) MakeBucket(_ context.Context, name string, _ minio.MakeBucketOptions) error {
	m.buckets[name] = true
	return nil
}

func (m *mockMinIOAPI) PutObject(_ context.Context, _, objectName string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.objects[objectName] = data
	return minio.UploadInfo{Key: objectName, Size: int64(len(data))}, nil
}

func (m *mockMinIOAPI) GetObject(_ context.Context, _, _ string, _ minio.GetObjectOptions) (*minio.Object, error) {
	return nil, nil
}

func (m *mockMinIOAPI) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		for key := range m.objects {
			if len(opts.Prefix) == 0 || (len(key) >= len(opts.Prefix) && key[:len(opts.Prefix)] == opts.Prefix) {
				ch <- minio.ObjectInfo{Key: key}
			}
		}
	}()
	return ch
}

func TestReportArchiver_Archive(t *testing.T) {
	api := newMockMinIOAPI()
	client := NewClientWithAPI(api, "intel-reports", logging.NewNopLogger())
	archiver := NewReportArchiver(client, logging.NewNopLogger())

	started := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	report := &refresh.Report{
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Sources: []refresh.SourceStats{
			{SourceType: string(types.SourceEmail), Scanned: 12, Created: 3, Updated: 5, LinksCreated: 8},
		},
	}

	require.NoError(t, archiver.Archive(context.Background(), report))

	key := "refresh-reports/20260301T020000Z.json"
	data, ok := api.objects[key]
	require.True(t, ok, "expected object at %s, have %v", key, api.objects)

	var decoded refresh.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.StartedAt.Equal(started))
	require.Len(t, decoded.Sources, 1)
	assert.Equal(t, string(types.SourceEmail), decoded.Sources[0].SourceType)
	assert.Equal(t, 12, decoded.Sources[0].Scanned)
}

func TestReportArchiver_NilReport(t *testing.T) {
	archiver := NewReportArchiver(NewClientWithAPI(newMockMinIOAPI(), "intel-reports", logging.NewNopLogger()), logging.NewNopLogger())
	assert.Error(t, archiver.Archive(context.Background(), nil))
}

func TestReportArchiver_ListReportsNewestFirst(t *testing.T) {
	api := newMockMinIOAPI()
	api.objects["refresh-reports/20260101T000000Z.json"] = []byte("{}")
	api.objects["refresh-reports/20260301T000000Z.json"] = []byte("{}")
	api.objects["refresh-reports/20260201T000000Z.json"] = []byte("{}")
	api.objects["unrelated/other.json"] = []byte("{}")

	archiver := NewReportArchiver(NewClientWithAPI(api, "intel-reports", logging.NewNopLogger()), logging.NewNopLogger())
	keys, err := archiver.ListReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"refresh-reports/20260301T000000Z.json",
		"refresh-reports/20260201T000000Z.json",
		"refresh-reports/20260101T000000Z.json",
	}, keys)
}
