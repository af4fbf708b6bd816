// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

var attrTests = []struct {
	name     string
	val      interface{}
	expected *dynamodb.AttributeValue
}{
	{"null", nil, &dynamodb.AttributeValue{NULL: aws.Bool(true)}},
	{"string", "Cj0KCQ", &dynamodb.AttributeValue{S: aws.String("Cj0KCQ")}},
	{"empty-string", "", &dynamodb.AttributeValue{S: aws.String("")}},
	{"bool", false, &dynamodb.AttributeValue{BOOL: aws.Bool(false)}},
	{"number", json.Number("123.456"), &dynamodb.AttributeValue{N: aws.String("123.456")}},
	{"int64", int64(-3), &dynamodb.AttributeValue{N: aws.String("-3")}},
	{"int", 7, &dynamodb.AttributeValue{N: aws.String("7")}},
	{"float64", 0.5, &dynamodb.AttributeValue{N: aws.String("0.5")}},
}

func TestToAttr(t *testing.T) {
	for _, test := range attrTests {
		av, err := toAttr(test.val)
		if err != nil {
			t.Errorf("test=%s unexpected error %v", test.name, err)
			continue
		}
		if !reflect.DeepEqual(av, test.expected) {
			t.Errorf("test=%s expected=%v actual=%v", test.name, test.expected, av)
		}
	}
}

func TestToAttrUnsupported(t *testing.T) {
	for _, v := range []interface{}{math.NaN(), []int{1}, struct{}{}} {
		if _, err := toAttr(v); err == nil {
			t.Errorf("expected error for %#v", v)
		}
	}
}

func TestToItem(t *testing.T) {
	item, err := toItem(Record{
		"GCLID":       "abc",
		"CAMPAIGN_ID": json.Number("99"),
		"IS_MOBILE":   true,
		"DEVICE":      nil,
	})
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	expected := Item{
		"GCLID":       {S: aws.String("abc")},
		"CAMPAIGN_ID": {N: aws.String("99")},
		"IS_MOBILE":   {BOOL: aws.Bool(true)},
		"DEVICE":      {NULL: aws.Bool(true)},
	}
	if !reflect.DeepEqual(item, expected) {
		t.Errorf("expected=%v actual=%v", expected, item)
	}

	if _, err := toItem(Record{"BAD": []byte("x")}); err == nil {
		t.Error("expected error for unsupported column value")
	}
}

func TestKeyOf(t *testing.T) {
	item := Item{
		"GCLID": {S: aws.String("abc")},
		"DATE":  {S: aws.String("2023-01-01")},
		"N":     {N: aws.String("1")},
	}
	if k := keyOf(item, nil); k != "" {
		t.Error("expected empty key without key attributes", k)
	}
	if k := keyOf(item, []string{"MISSING"}); k != "" {
		t.Error("expected empty key for missing attribute", k)
	}
	a := keyOf(item, []string{"GCLID", "DATE"})
	b := keyOf(Item{"GCLID": {S: aws.String("abc")}, "DATE": {S: aws.String("2023-01-01")}}, []string{"GCLID", "DATE"})
	if a == "" || a != b {
		t.Errorf("expected equal keys a=%q b=%q", a, b)
	}
	// a string and a number with the same text are different keys
	if keyOf(Item{"K": {S: aws.String("1")}}, []string{"K"}) == keyOf(item, []string{"N"}) {
		t.Error("string and number keys compared equal")
	}
}

func TestKeyAttributes(t *testing.T) {
	table := &dynamodb.TableDescription{
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("DATE"), KeyType: aws.String(dynamodb.KeyTypeRange)},
			{AttributeName: aws.String("GCLID"), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
	}
	expected := []string{"GCLID", "DATE"}
	if actual := KeyAttributes(table); !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected=%v actual=%v", expected, actual)
	}
	if actual := KeyAttributes(nil); actual != nil {
		t.Error("expected nil for nil table", actual)
	}
	// the described schema is left untouched
	if aws.StringValue(table.KeySchema[0].AttributeName) != "DATE" {
		t.Error("key schema reordered in place")
	}
}

func TestCalcItemSize(t *testing.T) {
	item := Item{
		"GCLID":  {S: aws.String("abcdef")}, // 5 + 6
		"CLICKS": {N: aws.String("1234")},   // 6 + 4
		"MOBILE": {BOOL: aws.Bool(true)},    // 6 + 1
		"DEVICE": {NULL: aws.Bool(true)},    // 6 + 1
	}
	if size := calcItemSize(item); size != 35 {
		t.Errorf("expected=35 actual=%d", size)
	}
}
