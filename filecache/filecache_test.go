package filecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStorage struct {
	calls int
	data  map[string][]byte
	err   error
}

func (f *fakeStorage) DownloadWithURL(_ context.Context, URL string, _ ...interface{}) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data[URL], nil
}

func TestCache_SourceFetchesOnce(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{"/a.py": []byte("print(1)")}}
	c := newWithService(storage)

	first, err := c.Source(context.Background(), "/a.py")
	assert.NoError(t, err)
	assert.Equal(t, "print(1)", first)

	second, err := c.Source(context.Background(), "/a.py")
	assert.NoError(t, err)
	assert.Equal(t, "print(1)", second)
	assert.Equal(t, 1, storage.calls)
}

func TestCache_SourceWrapsFetchError(t *testing.T) {
	storage := &fakeStorage{err: assert.AnError}
	c := newWithService(storage)

	_, err := c.Source(context.Background(), "/missing.py")
	assert.Error(t, err)
}

func TestCache_RegisterDoesNotFetch(t *testing.T) {
	storage := &fakeStorage{}
	c := newWithService(storage)

	err := c.Register(context.Background(), "/a.py")
	assert.NoError(t, err)
	assert.Equal(t, 0, storage.calls)
}

func TestCache_RegisterRejectsEmptyPath(t *testing.T) {
	c := newWithService(&fakeStorage{})
	assert.Error(t, c.Register(context.Background(), ""))
}
