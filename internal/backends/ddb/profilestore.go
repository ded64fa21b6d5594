package ddb

import (
	"context"
	"easyprofile/internal/types"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/goccy/go-json"
)

// maxTransactItems is the DynamoDB limit of items in one TransactWriteItems call.
const maxTransactItems = 100

// ProfileStore keeps one item per (profile, category). Each listed category is replaced as a
// whole on Save; entry values are stored as JSON strings.
type ProfileStore struct {
	table string
	cli   *dynamodb.Client
}

type categoryItem struct {
	PK        string            `dynamodbav:"PK"`
	SK        string            `dynamodbav:"SK"`
	Category  string            `dynamodbav:"category"`
	Values    map[string]string `dynamodbav:"values"`
	UpdatedAt int64             `dynamodbav:"updated_at"`
}

func NewProfileStore(ctx context.Context, table string, cli *dynamodb.Client) (*ProfileStore, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, err
	}
	return &ProfileStore{table: table, cli: cli}, nil
}

func (s *ProfileStore) Load(ctx context.Context, profileID string) (types.Snapshot, error) {
	items, err := s.queryCategories(ctx, profileID, "")
	if err != nil {
		return types.Snapshot{}, err
	}
	if len(items) == 0 {
		return types.Snapshot{}, types.ErrNotFound
	}
	snap := types.NewSnapshot(profileID)
	for _, item := range items {
		for name, raw := range item.Values {
			snap.Put(item.Category, name, json.RawMessage(raw))
		}
	}
	return snap, nil
}

func (s *ProfileStore) Save(ctx context.Context, snap types.Snapshot, categories []string) error {
	if categories == nil {
		for cat := range snap.Categories {
			categories = append(categories, cat)
		}
	}
	now := time.Now().Unix()
	writes := make([]ddbTypes.TransactWriteItem, 0, len(categories))
	for _, cat := range categories {
		entries := snap.Categories[cat]
		if len(entries) == 0 {
			continue
		}
		item := categoryItem{
			PK:        pkProfile(snap.ProfileID),
			SK:        skCategory(cat),
			Category:  cat,
			Values:    make(map[string]string, len(entries)),
			UpdatedAt: now,
		}
		for name, v := range entries {
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s.%s: %w", cat, name, err)
			}
			item.Values[name] = string(b)
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return err
		}
		writes = append(writes, ddbTypes.TransactWriteItem{
			Put: &ddbTypes.Put{TableName: &s.table, Item: av},
		})
	}
	return s.transact(ctx, writes)
}

func (s *ProfileStore) Delete(ctx context.Context, profileID string) error {
	items, err := s.queryCategories(ctx, profileID, "PK, SK")
	if err != nil {
		return err
	}
	writes := make([]ddbTypes.TransactWriteItem, 0, len(items))
	for _, item := range items {
		writes = append(writes, ddbTypes.TransactWriteItem{
			Delete: &ddbTypes.Delete{
				TableName: &s.table,
				Key: map[string]ddbTypes.AttributeValue{
					"PK": &ddbTypes.AttributeValueMemberS{Value: item.PK},
					"SK": &ddbTypes.AttributeValueMemberS{Value: item.SK},
				},
			},
		})
	}
	return s.transact(ctx, writes)
}

func (s *ProfileStore) ClearAll(ctx context.Context) error {
	// delete all items in the table
	_, err := s.cli.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	// wait until the table is deleted
	err = dynamodb.NewTableNotExistsWaiter(s.cli).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, tableReadyTimeout)
	if err != nil {
		return err
	}
	// Recreate the table
	return createTableIfNotExists(ctx, s.cli, s.table)
}

// ListProfiles scans for category items and returns the distinct profile ids.
func (s *ProfileStore) ListProfiles(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	p := dynamodb.NewScanPaginator(s.cli, &dynamodb.ScanInput{
		TableName:            &s.table,
		ProjectionExpression: awsString("PK"),
		FilterExpression:     awsString("begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":sk": &ddbTypes.AttributeValueMemberS{Value: skCategoryPrefix()},
		},
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			var key struct {
				PK string `dynamodbav:"PK"`
			}
			if err := attributevalue.UnmarshalMap(item, &key); err != nil {
				return nil, err
			}
			id, err := parseProfileID(key.PK)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *ProfileStore) queryCategories(ctx context.Context, profileID, projection string) ([]categoryItem, error) {
	in := &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkProfile(profileID)},
			":sk": &ddbTypes.AttributeValueMemberS{Value: skCategoryPrefix()},
		},
		ConsistentRead: awsBool(true),
	}
	if projection != "" {
		in.ProjectionExpression = awsString(projection)
	}
	var items []categoryItem
	p := dynamodb.NewQueryPaginator(s.cli, in)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []categoryItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
	return items, nil
}

func (s *ProfileStore) transact(ctx context.Context, writes []ddbTypes.TransactWriteItem) error {
	for len(writes) > 0 {
		n := min(len(writes), maxTransactItems)
		_, err := s.cli.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: writes[:n],
		})
		if err != nil {
			return err
		}
		writes = writes[n:]
	}
	return nil
}
