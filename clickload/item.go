// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// Item is a record converted to DynamoDB attributes.
type Item map[string]*dynamodb.AttributeValue

// toItem converts a record into a DynamoDB item with one attribute per
// column.  Column names are used verbatim.
func toItem(rec Record) (Item, error) {
	item := make(Item, len(rec))
	for k, v := range rec {
		av, err := toAttr(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toAttr(v interface{}) (*dynamodb.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &dynamodb.AttributeValue{NULL: aws.Bool(true)}, nil

	case string:
		return &dynamodb.AttributeValue{S: aws.String(val)}, nil

	case bool:
		return &dynamodb.AttributeValue{BOOL: aws.Bool(val)}, nil

	case json.Number:
		return &dynamodb.AttributeValue{N: aws.String(val.String())}, nil

	case int64:
		return &dynamodb.AttributeValue{N: aws.String(strconv.FormatInt(val, 10))}, nil

	case int:
		return &dynamodb.AttributeValue{N: aws.String(strconv.Itoa(val))}, nil

	case float64:
		n := strconv.FormatFloat(val, 'f', -1, 64)
		if !isJSONNumber(n) {
			return nil, fmt.Errorf("unsupported number %v", val)
		}
		return &dynamodb.AttributeValue{N: aws.String(n)}, nil

	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// keyOf returns a string identifying the item by the given key attributes,
// or "" if keyAttrs is empty or the item lacks one of them.
func keyOf(item Item, keyAttrs []string) string {
	if len(keyAttrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keyAttrs))
	for _, k := range keyAttrs {
		av, ok := item[k]
		if !ok {
			return ""
		}
		parts = append(parts, av.String())
	}
	return strings.Join(parts, "\x00")
}

// keyAttributes extracts the attribute names of a table's primary key,
// hash key first.
func keyAttributes(schema []*dynamodb.KeySchemaElement) []string {
	elems := append([]*dynamodb.KeySchemaElement{}, schema...)
	sort.SliceStable(elems, func(i, j int) bool {
		return aws.StringValue(elems[i].KeyType) == dynamodb.KeyTypeHash &&
			aws.StringValue(elems[j].KeyType) != dynamodb.KeyTypeHash
	})
	names := make([]string, 0, len(elems))
	for _, e := range elems {
		names = append(names, aws.StringValue(e.AttributeName))
	}
	return names
}

// KeyAttributes returns the primary key attribute names of the described
// table, hash key first.
func KeyAttributes(table *dynamodb.TableDescription) []string {
	if table == nil {
		return nil
	}
	return keyAttributes(table.KeySchema)
}

// this is based on https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/WorkingWithTables.html#ItemSizeCalculations
func calcItemSize(item Item) (size int) {
	for k, av := range item {
		size += len(k)
		size += calcAttrSize(av)
	}
	return size
}

func calcAttrSize(av *dynamodb.AttributeValue) (size int) {
	switch {
	case av.BOOL != nil, av.NULL != nil:
		size++

	case av.N != nil: // number
		size += len(*av.N)

	case av.S != nil: // string
		size += len(*av.S)
	}
	return size
}
