package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/studysync/pkg/storage"
	storagetesting "github.com/marmos91/studysync/pkg/storage/testing"
)

// stubClient is an in-memory S3 double: objects live in a map keyed by
// bucket-relative object key.
type stubClient struct {
	objects     map[string][]byte
	headErr     error
	putCalls    int
	lastPutKey  string
	lastGetKeys []string
}

func newStubClient() *stubClient {
	return &stubClient{objects: make(map[string][]byte)}
}

func (c *stubClient) HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	if c.headErr != nil {
		return nil, c.headErr
	}
	return &awss3.HeadBucketOutput{}, nil
}

func (c *stubClient) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	c.putCalls++
	c.lastPutKey = aws.ToString(params.Key)
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.objects[c.lastPutKey] = data
	return &awss3.PutObjectOutput{}, nil
}

func (c *stubClient) GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	c.lastGetKeys = append(c.lastGetKeys, key)
	data, ok := c.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newTestStrategy(t *testing.T, client *stubClient) *Strategy {
	t.Helper()
	s, err := New(Config{Client: client, Bucket: "studies", KeyPrefix: "sync/"}, "study-1")
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Bucket: "b"}, "study-1")
	assert.Error(t, err)

	_, err = New(Config{Client: newStubClient()}, "study-1")
	assert.Error(t, err)
}

func TestConnect_UnreachableBucket(t *testing.T) {
	client := newStubClient()
	client.headErr = errors.New("403 Forbidden")
	s := newTestStrategy(t, client)

	err := s.Connect(context.Background())
	var serr *storage.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, storage.ErrUnavailable, serr.Code)
}

func TestReconnect_UnreachableIsNotAnError(t *testing.T) {
	client := newStubClient()
	client.headErr = errors.New("dial tcp: no route to host")
	s := newTestStrategy(t, client)

	ok, err := s.Reconnect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_UsesPrefixedKey(t *testing.T) {
	ctx := context.Background()
	client := newStubClient()
	s := newTestStrategy(t, client)
	require.NoError(t, s.Connect(ctx))

	require.NoError(t, s.Write(ctx, "data.csv", []byte("a,b\n")))
	assert.Equal(t, "sync/study-1/data.csv", client.lastPutKey)
	assert.Equal(t, []byte("a,b\n"), client.objects["sync/study-1/data.csv"])
}

func TestWrite_RequiresConnect(t *testing.T) {
	s := newTestStrategy(t, newStubClient())

	err := s.Write(context.Background(), "data.csv", []byte("x"))
	assert.True(t, storage.IsNotConnected(err))
}

func TestCollect_SkipsMissingObjects(t *testing.T) {
	ctx := context.Background()
	client := newStubClient()
	s := newTestStrategy(t, client)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Write(ctx, "data.csv", []byte("a,b\n")))

	payload, err := s.Collect(ctx, []string{"data.csv", "data.json"})
	require.NoError(t, err)
	require.Equal(t, 1, payload.Count())
	assert.Equal(t, "data.csv", payload.Files[0].Name)
	assert.Equal(t, []byte("a,b\n"), payload.Files[0].Content)
}

func TestCheckPermission_AlwaysGranted(t *testing.T) {
	s := newTestStrategy(t, newStubClient())

	ok, err := s.CheckPermission(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStrategyConformance(t *testing.T) {
	suite := storagetesting.StrategyTestSuite{
		NewStrategy: func(t *testing.T) storage.Strategy {
			s := newTestStrategy(t, newStubClient())
			require.NoError(t, s.Connect(context.Background()))
			return s
		},
		Reopen: func(t *testing.T, prev storage.Strategy) storage.Strategy {
			first, ok := prev.(*Strategy)
			require.True(t, ok)
			reopened, err := New(Config{Client: first.client, Bucket: first.bucket, KeyPrefix: first.keyPrefix}, first.studyID)
			require.NoError(t, err)
			return reopened
		},
	}
	suite.Run(t)
}
