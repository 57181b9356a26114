package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(raw)
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("second"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("first"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("nope"), 0o600))

	var o SourceOpener
	ctx := context.Background()

	t.Run("plain file", func(t *testing.T) {
		rc, name, err := o.Open(ctx, filepath.Join(dir, "b.csv"))
		require.NoError(t, err)
		assert.Equal(t, "second", readAll(t, rc))
		assert.Equal(t, filepath.Join(dir, "b.csv"), name)
	})

	t.Run("directory picks the first csv", func(t *testing.T) {
		rc, _, err := o.Open(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, "first", readAll(t, rc))
	})

	t.Run("glob picks the first match", func(t *testing.T) {
		rc, _, err := o.Open(ctx, filepath.Join(dir, "*.csv"))
		require.NoError(t, err)
		assert.Equal(t, "first", readAll(t, rc))
	})

	t.Run("glob without matches", func(t *testing.T) {
		_, _, err := o.Open(ctx, filepath.Join(dir, "*.parquet"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := o.Open(ctx, filepath.Join(dir, "missing.csv"))
		require.Error(t, err)
	})
}

func TestOpenS3(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string]string{"exports/stock/etab.csv": "siret,siren,nic\n"}}
	o := SourceOpener{S3: client}

	rc, name, err := o.Open(ctx, "s3://exports/stock/etab.csv")
	require.NoError(t, err)
	assert.Equal(t, "siret,siren,nic\n", readAll(t, rc))
	assert.Equal(t, "s3://exports/stock/etab.csv", name)
	assert.Equal(t, "exports", aws.ToString(client.input.Bucket))
	assert.Equal(t, "stock/etab.csv", aws.ToString(client.input.Key))

	_, _, err = o.Open(ctx, "s3://exports")
	require.Error(t, err)

	_, _, err = SourceOpener{}.Open(ctx, "s3://exports/etab.csv")
	require.Error(t, err)
}
