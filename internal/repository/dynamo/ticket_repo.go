package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

// DynamoDBAPI is the subset of *dynamodb.Client the ticket store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type ddbTicketRepository struct {
	client    DynamoDBAPI
	tableName string
}

func NewDdbTicketRepository(client DynamoDBAPI, tableName string) repository.TicketRepository {
	return &ddbTicketRepository{client: client, tableName: tableName}
}

// NewClient builds a DynamoDB client, pointing it at endpoint when set
// (DynamoDB Local, LocalStack).
func NewClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (r *ddbTicketRepository) key(id string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		domain.FieldTicketID: &ddbtypes.AttributeValueMemberS{Value: id},
	}
}

func (r *ddbTicketRepository) Get(ctx context.Context, id string) (*domain.TicketRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("TicketRepository.Get: GetItem: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, repository.ErrNotFound
	}
	var rec domain.TicketRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("TicketRepository.Get: unmarshal map: %w", err)
	}
	return &rec, nil
}

func (r *ddbTicketRepository) Put(ctx context.Context, rec *domain.TicketRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("TicketRepository.Put: marshal map: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("TicketRepository.Put: PutItem: %w", err)
	}
	return nil
}

func (r *ddbTicketRepository) UpdateField(ctx context.Context, id string, upd repository.FieldUpdate) error {
	if err := repository.CheckUpdatableField(upd.Field); err != nil {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}

	var value ddbtypes.AttributeValue = &ddbtypes.AttributeValueMemberS{Value: upd.Value}
	if upd.Field == domain.FieldParkingLot {
		value = &ddbtypes.AttributeValueMemberN{Value: upd.Value}
	}

	// UpdateItem upserts, so the key must already exist.
	condition := "attribute_exists(#k)"
	values := map[string]ddbtypes.AttributeValue{":v": value}
	if upd.RequireUnset {
		condition += " AND (attribute_not_exists(#f) OR attribute_type(#f, :null) OR #f = :empty)"
		values[":null"] = &ddbtypes.AttributeValueMemberS{Value: "NULL"}
		values[":empty"] = &ddbtypes.AttributeValueMemberS{Value: ""}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              r.key(id),
		UpdateExpression: aws.String("SET #f = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": domain.FieldTicketID,
			"#f": upd.Field,
		},
		ExpressionAttributeValues:           values,
		ConditionExpression:                 aws.String(condition),
		ReturnValuesOnConditionCheckFailure: ddbtypes.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return repository.ErrNotFound
			}
			return repository.ErrConditionFailed
		}
		return fmt.Errorf("TicketRepository.UpdateField: UpdateItem: %w", err)
	}
	return nil
}
