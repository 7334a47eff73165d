// Package ddbsource provides a DynamoDB-backed module source: one item
// per resource, keyed by module and resource name.
package ddbsource

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gantry-io/gantry/source"
)

// Attribute names in the backing table.
const (
	attrModule  = "module"
	attrName    = "name"
	attrPayload = "payload"
)

// Client is the subset of the DynamoDB API the source uses.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Source serves module resources from a DynamoDB table. The table key is
// the (module, name) pair and payloads are binary attributes.
type Source struct {
	client Client
	table  string
	module string
}

// New returns a Source reading items for module from table.
func New(client Client, table, module string) *Source {
	return &Source{client: client, table: table, module: module}
}

// Connect loads AWS configuration and returns a Source for module backed
// by table. An empty region uses the region from the environment.
func Connect(ctx context.Context, table, module, region string) (*Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("ddbsource: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table, module), nil
}

// Find fetches the item keyed by (module, name). A missing item is
// source.ErrNotFound; an item without a binary payload attribute is
// malformed and reported as an error.
func (s *Source) Find(ctx context.Context, name string) (source.ByteSource, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrModule: &types.AttributeValueMemberS{Value: s.module},
			attrName:   &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ddbsource: get %s/%s: %w", s.module, name, err)
	}
	if len(out.Item) == 0 {
		return nil, source.ErrNotFound
	}
	payload, ok := out.Item[attrPayload].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("ddbsource: item %s/%s has no binary payload", s.module, name)
	}
	return source.FromBytes(name, payload.Value), nil
}
