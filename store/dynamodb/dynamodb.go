// Package dynamodb provides a store.Store that emulates the set / sorted-set
// contract on a single DynamoDB table.
//
// Each storage key maps to one item keyed by the partition key "pk".
// Storage keys and sorted-set members carry raw bucket encodings, and
// DynamoDB string attributes must be valid UTF-8, so both are base64-encoded
// on the way in. Set membership uses a string-set attribute updated with
// ADD, which gives the idempotent, commutative semantics the index relies
// on. Sorted-set counters are kept as one number attribute per member; ADD
// on a number attribute is an atomic server-side increment.
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name simindex \
//	  --attribute-definitions AttributeName=pk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// DynamoDB has no pipelining for mixed reads and writes, so a batch fans out
// as concurrent requests and fans back in before Exec returns.
package dynamodb

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/simindex/store"
)

// counterPrefix marks score counter attributes on frequency items, keeping
// them distinguishable from the partition key and the members attribute.
const counterPrefix = "c_"

// Client is the interface for the DynamoDB operations used by the store.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store implements store.Store on a DynamoDB table.
type Store struct {
	client      Client
	tableName   string
	concurrency int
}

// New creates a Store on the given client and table.
func New(client Client, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		// Limit batch fan-out to avoid connection exhaustion and
		// throttling, mirroring typical SDK retry budgets.
		concurrency: 16,
	}
}

// Batch starts a new request batch.
func (s *Store) Batch() store.Batch {
	return &batch{store: s}
}

type batch struct {
	store *Store
	reqs  []func(ctx context.Context) error
}

func (b *batch) SetAdd(key, member string) {
	b.reqs = append(b.reqs, func(ctx context.Context) error {
		_, err := b.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        aws.String(b.store.tableName),
			Key:              itemKey(key),
			UpdateExpression: aws.String("ADD members :m"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":m": &types.AttributeValueMemberSS{Value: []string{member}},
			},
		})
		if err != nil {
			return fmt.Errorf("set-add %q: %w", key, err)
		}
		return nil
	})
}

func (b *batch) SetMembers(key string) *store.Members {
	res := &store.Members{}
	b.reqs = append(b.reqs, func(ctx context.Context) error {
		out, err := b.store.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(b.store.tableName),
			Key:            itemKey(key),
			ConsistentRead: aws.Bool(false),
		})
		if err != nil {
			err = fmt.Errorf("set-members %q: %w", key, err)
			res.Resolve(nil, err)
			return err
		}
		members, ok := out.Item["members"].(*types.AttributeValueMemberSS)
		if !ok {
			res.Resolve([]string{}, nil)
			return nil
		}
		res.Resolve(members.Value, nil)
		return nil
	})
	return res
}

func (b *batch) SortedSetIncr(key, member string, delta float64) *store.Score {
	res := &store.Score{}
	b.reqs = append(b.reqs, func(ctx context.Context) error {
		attr := counterPrefix + base64.RawURLEncoding.EncodeToString([]byte(member))
		out, err := b.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                aws.String(b.store.tableName),
			Key:                      itemKey(key),
			UpdateExpression:         aws.String("ADD #m :d"),
			ExpressionAttributeNames: map[string]string{"#m": attr},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":d": &types.AttributeValueMemberN{Value: formatScore(delta)},
			},
			ReturnValues: types.ReturnValueUpdatedNew,
		})
		if err != nil {
			err = fmt.Errorf("sorted-set-incr %q: %w", key, err)
			res.Resolve(0, err)
			return err
		}
		score, err := parseCounter(out.Attributes[attr])
		if err != nil {
			err = fmt.Errorf("sorted-set-incr %q: %w", key, err)
			res.Resolve(0, err)
			return err
		}
		res.Resolve(score, nil)
		return nil
	})
	return res
}

func (b *batch) SortedSetRange(key string, start, stop int64, rev bool) *store.Range {
	res := &store.Range{}
	b.reqs = append(b.reqs, func(ctx context.Context) error {
		out, err := b.store.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(b.store.tableName),
			Key:            itemKey(key),
			ConsistentRead: aws.Bool(false),
		})
		if err != nil {
			err = fmt.Errorf("sorted-set-range %q: %w", key, err)
			res.Resolve(nil, err)
			return err
		}
		ranked, err := decodeCounters(out.Item)
		if err != nil {
			err = fmt.Errorf("sorted-set-range %q: %w", key, err)
			res.Resolve(nil, err)
			return err
		}
		res.Resolve(store.RankSlice(ranked, start, stop, rev), nil)
		return nil
	})
	return res
}

func (b *batch) Exec(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.store.concurrency)
	for _, req := range b.reqs {
		g.Go(func() error {
			return req(ctx)
		})
	}
	b.reqs = nil
	if err := g.Wait(); err != nil {
		return fmt.Errorf("dynamodb batch: %w", err)
	}
	return nil
}

// itemKey derives the partition key for a storage key. Membership keys
// embed raw bucket encodings, which are rarely valid UTF-8, so the key is
// base64-encoded like the counter attribute names.
func itemKey(key string) map[string]types.AttributeValue {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(key))
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: encoded},
	}
}

// decodeCounters extracts the score counters from a frequency item.
func decodeCounters(item map[string]types.AttributeValue) ([]store.ScoredMember, error) {
	var ranked []store.ScoredMember
	for name, av := range item {
		if !strings.HasPrefix(name, counterPrefix) {
			continue
		}
		member, err := base64.RawURLEncoding.DecodeString(name[len(counterPrefix):])
		if err != nil {
			return nil, fmt.Errorf("malformed counter attribute %q: %w", name, err)
		}
		score, err := parseCounter(av)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, store.ScoredMember{Member: string(member), Score: score})
	}
	return ranked, nil
}

func parseCounter(av types.AttributeValue) (float64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("unexpected counter attribute type %T", av)
	}
	return strconv.ParseFloat(n.Value, 64)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
