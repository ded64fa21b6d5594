package ddb

import (
	"context"
	"easyprofile/internal/types"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
)

const TestTableName = "easyprofile_test"

// Runs against a local DynamoDB mock when TEST_DDB_ENDPOINT is set, e.g. http://localhost:4566.
type ProfileStoreTestSuite struct {
	suite.Suite

	store *ProfileStore
}

func TestProfileStoreTestSuite(t *testing.T) {
	if os.Getenv("TEST_DDB_ENDPOINT") == "" {
		t.Skip("TEST_DDB_ENDPOINT not set")
	}
	suite.Run(t, new(ProfileStoreTestSuite))
}

func (s *ProfileStoreTestSuite) SetupSuite() {
	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	s.Require().NoError(err)
	cli := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(os.Getenv("TEST_DDB_ENDPOINT"))
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
	})
	s.store, err = NewProfileStore(ctx, TestTableName, cli)
	s.Require().NoError(err)
}

func (s *ProfileStoreTestSuite) SetupTest() {
	s.Require().NoError(s.store.ClearAll(context.Background()))
}

func (s *ProfileStoreTestSuite) TestLoadMissing() {
	_, err := s.store.Load(context.Background(), "nobody")
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *ProfileStoreTestSuite) TestSaveLoadDelete() {
	ctx := context.Background()
	snap := types.NewSnapshot("p1")
	snap.Put("BOOL", "a", false)
	snap.Put("U32", "n", uint32(9))
	s.Require().NoError(s.store.Save(ctx, snap, nil))

	got, err := s.store.Load(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(json.RawMessage("false"), got.Categories["BOOL"]["a"])
	s.Equal(json.RawMessage("9"), got.Categories["U32"]["n"])

	ids, err := s.store.ListProfiles(ctx)
	s.NoError(err)
	s.Equal([]string{"p1"}, ids)

	s.Require().NoError(s.store.Delete(ctx, "p1"))
	_, err = s.store.Load(ctx, "p1")
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *ProfileStoreTestSuite) TestSaveReplacesListedCategoryOnly() {
	ctx := context.Background()
	first := types.NewSnapshot("p1")
	first.Put("BOOL", "a", true)
	first.Put("STR", "s", "x")
	s.Require().NoError(s.store.Save(ctx, first, nil))

	second := types.NewSnapshot("p1")
	second.Put("STR", "s", "y")
	s.Require().NoError(s.store.Save(ctx, second, []string{"STR"}))

	got, err := s.store.Load(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(json.RawMessage("true"), got.Categories["BOOL"]["a"])
	s.Equal(json.RawMessage(`"y"`), got.Categories["STR"]["s"])
}

func (s *ProfileStoreTestSuite) TestParseProfileID() {
	id, err := parseProfileID(pkProfile("abc"))
	s.NoError(err)
	s.Equal("abc", id)
	_, err = parseProfileID("CLIENT#abc")
	s.Error(err)
}
