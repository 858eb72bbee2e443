package repository

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var setClause = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing.
// Queries match on the partition key value and an SK prefix taken from the
// expression values, which covers the key conditions the repositories build.
type TestClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// pageSize > 0 makes Query return paginated results
	pageSize   int
	batchSizes []int
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func tableKey(item map[string]types.AttributeValue) string {
	return stringAttr(item, "PK") + "|" + stringAttr(item, "SK")
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: c.items[tableKey(params.Key)]}, nil
}

// PutItem adds or updates an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(params.Item)
	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(PK)" {
		if _, exists := c.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("Item already exists")}
		}
	}
	c.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem applies SET clauses of the update expression
func (c *TestClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(params.Key)
	item, exists := c.items[key]
	if !exists {
		if strings.Contains(aws.ToString(params.ConditionExpression), "attribute_exists") {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("Item does not exist")}
		}
		item = map[string]types.AttributeValue{"PK": params.Key["PK"], "SK": params.Key["SK"]}
		c.items[key] = item
	}

	for _, m := range setClause.FindAllStringSubmatch(aws.ToString(params.UpdateExpression), -1) {
		item[params.ExpressionAttributeNames[m[1]]] = params.ExpressionAttributeValues[m[2]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem removes an item
func (c *TestClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, tableKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query returns items whose partition key equals one expression value and
// whose sort key starts with another
func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pkName, skName := "PK", "SK"
	if index := aws.ToString(params.IndexName); index != "" {
		pkName, skName = index+"PK", index+"SK"
	}

	var values []string
	for _, v := range params.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			values = append(values, s.Value)
		}
	}

	var keys []string
	for key, item := range c.items {
		if matches(stringAttr(item, pkName), stringAttr(item, skName), values) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if params.ExclusiveStartKey != nil {
		start := tableKey(params.ExclusiveStartKey)
		i := sort.SearchStrings(keys, start)
		if i < len(keys) && keys[i] == start {
			i++
		}
		keys = keys[i:]
	}

	limit := len(keys)
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	paged := c.pageSize > 0 && c.pageSize < limit
	if paged {
		limit = c.pageSize
	}

	out := &dynamodb.QueryOutput{Items: make([]map[string]types.AttributeValue, 0, limit)}
	for _, key := range keys[:limit] {
		out.Items = append(out.Items, c.items[key])
	}
	if paged {
		last := out.Items[len(out.Items)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func matches(pk, sk string, values []string) bool {
	if pk == "" {
		return false
	}
	pkMatch, skMatch := false, false
	for _, v := range values {
		if v == pk {
			pkMatch = true
		} else if strings.HasPrefix(sk, v) {
			skMatch = true
		}
	}
	return pkMatch && skMatch
}

// BatchWriteItem applies put and delete requests
func (c *TestClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, requests := range params.RequestItems {
		c.batchSizes = append(c.batchSizes, len(requests))
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				c.items[tableKey(req.PutRequest.Item)] = req.PutRequest.Item
			case req.DeleteRequest != nil:
				delete(c.items, tableKey(req.DeleteRequest.Key))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}
