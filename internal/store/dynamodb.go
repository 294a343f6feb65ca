package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBのテーブル上の属性名。
const (
	attrPartitionKey = "tenant_id#user_id"
	attrSortKey      = "periodo"
)

// DynamoDBAPI はDynamoDBStoreが使うクライアント操作。
// *dynamodb.Client がこれを満たす。
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem はDynamoDBに保存する項目の形。
type dynamoItem struct {
	PartitionKey string   `dynamodbav:"tenant_id#user_id"`
	SortKey      string   `dynamodbav:"periodo"`
	Courses      []Course `dynamodbav:"Courses"`
	TotalCredits float64  `dynamodbav:"TotalCredits"`
}

// DynamoDB はDynamoDBテーブルに履修登録レコードを保存するStore実装。
type DynamoDB struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoDB は与えられたクライアントでDynamoDBストアを生成する。
func NewDynamoDB(client DynamoDBAPI, table string) *DynamoDB {
	return &DynamoDB{client: client, table: table}
}

// NewDynamoDBFromConfig はAWSの既定の認証情報チェーンからクライアントを生成する。
// endpoint を指定するとDynamoDB Localなどに接続できる。
func NewDynamoDBFromConfig(ctx context.Context, table, region, endpoint string) (*DynamoDB, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoDB(client, table), nil
}

// keyAttributes はキーをDynamoDBの属性マップに変換する。
func keyAttributes(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: key.PartitionKey},
		attrSortKey:      &types.AttributeValueMemberS{Value: key.SortKey},
	}
}

// Put は項目を保存する。同じキーの項目は置き換えられる。
func (d *DynamoDB) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(dynamoItem{
		PartitionKey: rec.PartitionKey,
		SortKey:      rec.SortKey,
		Courses:      rec.Courses,
		TotalCredits: rec.TotalCredits,
	})
	if err != nil {
		return fmt.Errorf("項目のシリアライズに失敗: %w", err)
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("項目の保存に失敗: %w", err)
	}
	return nil
}

// Get はキーに対応する項目を返す。
func (d *DynamoDB) Get(ctx context.Context, key Key) (Record, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       keyAttributes(key),
	})
	if err != nil {
		return Record{}, fmt.Errorf("項目の取得に失敗: %w", err)
	}
	if len(out.Item) == 0 {
		return Record{}, ErrNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Record{}, fmt.Errorf("項目のデシリアライズに失敗: %w", err)
	}
	return Record{
		PartitionKey: item.PartitionKey,
		SortKey:      item.SortKey,
		Courses:      item.Courses,
		TotalCredits: item.TotalCredits,
	}, nil
}

// Delete はキーに対応する項目を削除する。
func (d *DynamoDB) Delete(ctx context.Context, key Key) error {
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       keyAttributes(key),
	}); err != nil {
		return fmt.Errorf("項目の削除に失敗: %w", err)
	}
	return nil
}

// Close は何もしない。AWS SDKのクライアントは明示的な解放を必要としない。
func (d *DynamoDB) Close() error {
	return nil
}
