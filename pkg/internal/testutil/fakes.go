package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

type fakeObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// FakeVideoStore is an in-memory videostore.VideoStore. Set Err to make every
// operation fail.
type FakeVideoStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	Err     error
}

func NewFakeVideoStore() *FakeVideoStore {
	return &FakeVideoStore{objects: map[string]fakeObject{}}
}

// AddObject seeds an object without going through Put.
func (s *FakeVideoStore) AddObject(key string, size int64, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = fakeObject{data: make([]byte, size), lastModified: lastModified}
}

// ObjectData returns the stored bytes for key, or nil.
func (s *FakeVideoStore) ObjectData(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key].data
}

// ContentType returns the stored content type for key.
func (s *FakeVideoStore) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key].contentType
}

func (s *FakeVideoStore) List(ctx context.Context) ([]videostore.Object, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var objects []videostore.Object
	for key, obj := range s.objects {
		objects = append(objects, videostore.Object{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *FakeVideoStore) Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error {
	if s.Err != nil {
		return s.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = fakeObject{data: data, contentType: contentType, lastModified: time.Now().UTC()}
	return nil
}

func (s *FakeVideoStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if s.Err != nil {
		return nil, 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, 0, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), int64(len(obj.data)), nil
}

var _ videostore.VideoStore = (*FakeVideoStore)(nil)

// FakePresigner records the TTL and content type requested for every signed
// URL so tests can assert on validity windows.
type FakePresigner struct {
	mu                 sync.Mutex
	UploadTTLs         map[string]time.Duration
	UploadContentTypes map[string]string
	DownloadTTLs       map[string]time.Duration
	Err                error
}

func NewFakePresigner() *FakePresigner {
	return &FakePresigner{
		UploadTTLs:         map[string]time.Duration{},
		UploadContentTypes: map[string]string{},
		DownloadTTLs:       map[string]time.Duration{},
	}
}

func (p *FakePresigner) SignUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (url.URL, http.Header, error) {
	if p.Err != nil {
		return url.URL{}, nil, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UploadTTLs[key] = ttl
	p.UploadContentTypes[key] = contentType
	return signedURL("PUT", key, ttl), http.Header{"Content-Type": []string{contentType}}, nil
}

func (p *FakePresigner) SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (url.URL, error) {
	if p.Err != nil {
		return url.URL{}, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DownloadTTLs[key] = ttl
	return signedURL("GET", key, ttl), nil
}

func (p *FakePresigner) VerifyUploadURL(ctx context.Context, u url.URL, headers http.Header) (url.URL, http.Header, error) {
	return u, headers, p.Err
}

var _ presigner.RequestPresigner = (*FakePresigner)(nil)

func signedURL(method string, key string, ttl time.Duration) url.URL {
	return url.URL{
		Scheme:   "https",
		Host:     "signed.example.com",
		Path:     "/videos/" + key,
		RawQuery: fmt.Sprintf("X-Amz-Method=%s&X-Amz-Expires=%d", method, int(ttl.Seconds())),
	}
}

// FakeCatalogStore is an in-memory catalogstore.CatalogStore holding the
// single catalog record.
type FakeCatalogStore struct {
	mu     sync.Mutex
	rec    *catalogstore.Record
	Puts   int
	GetErr error
	PutErr error
}

func NewFakeCatalogStore() *FakeCatalogStore {
	return &FakeCatalogStore{}
}

func (s *FakeCatalogStore) Get(ctx context.Context) (catalogstore.Record, error) {
	if s.GetErr != nil {
		return catalogstore.Record{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return catalogstore.Record{}, store.ErrNotFound
	}
	return *s.rec, nil
}

func (s *FakeCatalogStore) Put(ctx context.Context, rec catalogstore.Record) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	s.Puts++
	return nil
}

var _ catalogstore.CatalogStore = (*FakeCatalogStore)(nil)
