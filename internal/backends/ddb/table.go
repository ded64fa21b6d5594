package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	SProfile  = "PROFILE"
	SCategory = "CAT"

	tableReadyTimeout = 30 * time.Second
)

func pkProfile(id string) string         { return fmt.Sprintf("%s#%s", SProfile, id) }
func skCategory(name string) string      { return fmt.Sprintf("%s#%s", SCategory, name) }
func skCategoryPrefix() string           { return SCategory + "#" }
func awsString(s string) *string         { return &s }
func awsBool(b bool) *bool               { return &b }
func errorAs(err error, target any) bool { return errors.As(err, target) }

func parseProfileID(pk string) (string, error) {
	id, ok := strings.CutPrefix(pk, SProfile+"#")
	if !ok || id == "" {
		return "", fmt.Errorf("malformed profile key %q", pk)
	}
	return id, nil
}

// createTableIfNotExists creates the table and waits until it is usable. An existing table
// is not an error.
func createTableIfNotExists(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errorAs(err, &re) {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return dynamodb.NewTableExistsWaiter(client).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}, tableReadyTimeout)
}
