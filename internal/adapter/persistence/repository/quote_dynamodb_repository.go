package repository

import (
	"context"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultQuotesTableName = "quotes"

type quoteItem struct {
	ID              string `dynamodbav:"id"`
	Reference       string `dynamodbav:"reference"`
	ClientID        string `dynamodbav:"client_id"`
	EstimatedAmount string `dynamodbav:"estimated_amount"`
	Status          string `dynamodbav:"status"`
	CreatedAt       string `dynamodbav:"created_at"`
	ValidUntil      string `dynamodbav:"valid_until"`
	ProjectScope    string `dynamodbav:"project_scope"`
	Terms           string `dynamodbav:"terms,omitempty"`
	Notes           string `dynamodbav:"notes,omitempty"`
	UpdatedAt       string `dynamodbav:"updated_at"`
}

type referenceGuardItem struct {
	ID string `dynamodbav:"id"`
}

// QuoteDynamoRepository persists Quote entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//
// Reference uniqueness is enforced with guard items (id = reference#<ref>)
// written transactionally next to the entity.

type QuoteDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IQuoteRepository = (*QuoteDynamoRepository)(nil)

func NewQuoteDynamoRepository(ddb *dynamodb.Client) *QuoteDynamoRepository {
	return &QuoteDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("QUOTES_TABLE", defaultQuotesTableName),
	}
}

func (r *QuoteDynamoRepository) Create(ctx context.Context, q entities.Quote) (entities.Quote, error) {
	av, err := attributevalue.MarshalMap(toQuoteItem(q))
	if err != nil {
		return entities.Quote{}, err
	}
	guard, err := attributevalue.MarshalMap(referenceGuardItem{ID: referenceGuardID(q.Reference)})
	if err != nil {
		return entities.Quote{}, err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     av,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     guard,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
		},
	})
	if err != nil {
		if transactionCancelledAt(err, 1) || transactionCancelledAt(err, 0) {
			return entities.Quote{}, interfaces.ErrReferenceTaken
		}
		return entities.Quote{}, err
	}
	return q, nil
}

func (r *QuoteDynamoRepository) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Quote{}, err
	}
	if len(out.Item) == 0 {
		return entities.Quote{}, nil
	}

	var it quoteItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Quote{}, err
	}
	return fromQuoteItem(it), nil
}

func (r *QuoteDynamoRepository) Update(ctx context.Context, q entities.Quote) (entities.Quote, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: q.ID},
		},
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression: aws.String("SET #client_id = :client_id, #estimated_amount = :estimated_amount, #status = :status, " +
			"#valid_until = :valid_until, #project_scope = :project_scope, #terms = :terms, #notes = :notes, #updated_at = :updated_at"),
		ExpressionAttributeNames: mergeNames(map[string]string{
			"#client_id":        "client_id",
			"#estimated_amount": "estimated_amount",
			"#status":           "status",
			"#valid_until":      "valid_until",
			"#project_scope":    "project_scope",
			"#terms":            "terms",
			"#notes":            "notes",
			"#updated_at":       "updated_at",
		}, map[string]string{"#id": "id"}),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":client_id":        &types.AttributeValueMemberS{Value: q.ClientID},
			":estimated_amount": &types.AttributeValueMemberS{Value: decimalToString(q.EstimatedAmount)},
			":status":           &types.AttributeValueMemberS{Value: string(q.Status)},
			":valid_until":      &types.AttributeValueMemberS{Value: timeToString(q.ValidUntil)},
			":project_scope":    &types.AttributeValueMemberS{Value: q.ProjectScope},
			":terms":            &types.AttributeValueMemberS{Value: q.Terms},
			":notes":            &types.AttributeValueMemberS{Value: q.Notes},
			":updated_at":       &types.AttributeValueMemberS{Value: timeToString(q.UpdatedAt)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// The row was deleted between the caller's read and this write.
			return entities.Quote{}, interfaces.ErrStaleEntity
		}
		return entities.Quote{}, err
	}

	var it quoteItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Quote{}, err
	}
	return fromQuoteItem(it), nil
}

func (r *QuoteDynamoRepository) Delete(ctx context.Context, id, reference string) error {
	_, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: id},
				},
				ConditionExpression:      aws.String("#status = :draft"),
				ExpressionAttributeNames: map[string]string{"#status": "status"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":draft": &types.AttributeValueMemberS{Value: string(entities.QuoteStatusDraft)},
				},
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: referenceGuardID(reference)},
				},
			}},
		},
	})
	if err != nil && transactionCancelledAt(err, 0) {
		return interfaces.ErrStaleEntity
	}
	return err
}

func (r *QuoteDynamoRepository) List(ctx context.Context, f interfaces.QuoteFilter) ([]entities.Quote, string, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("attribute_exists(#status)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
	}
	values := map[string]types.AttributeValue{}
	if f.Status != "" {
		*input.FilterExpression += " AND #status = :status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(f.Status)}
	}
	if f.ClientID != "" {
		*input.FilterExpression += " AND #client_id = :client_id"
		input.ExpressionAttributeNames["#client_id"] = "client_id"
		values[":client_id"] = &types.AttributeValueMemberS{Value: f.ClientID}
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	if f.Limit > 0 {
		input.Limit = aws.Int32(f.Limit)
	}
	if key := decodeCursor(f.Cursor); key != nil {
		input.ExclusiveStartKey = key
	}

	out, err := r.ddb.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}

	quotes := make([]entities.Quote, 0, len(out.Items))
	for _, raw := range out.Items {
		var it quoteItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, "", err
		}
		quotes = append(quotes, fromQuoteItem(it))
	}
	return quotes, encodeCursor(out.LastEvaluatedKey), nil
}

func toQuoteItem(q entities.Quote) quoteItem {
	return quoteItem{
		ID:              q.ID,
		Reference:       q.Reference,
		ClientID:        q.ClientID,
		EstimatedAmount: decimalToString(q.EstimatedAmount),
		Status:          string(q.Status),
		CreatedAt:       timeToString(q.CreatedAt),
		ValidUntil:      timeToString(q.ValidUntil),
		ProjectScope:    q.ProjectScope,
		Terms:           q.Terms,
		Notes:           q.Notes,
		UpdatedAt:       timeToString(q.UpdatedAt),
	}
}

func fromQuoteItem(it quoteItem) entities.Quote {
	return entities.Quote{
		ID:              it.ID,
		Reference:       it.Reference,
		ClientID:        it.ClientID,
		EstimatedAmount: decimalFromString(it.EstimatedAmount),
		Status:          entities.QuoteStatus(it.Status),
		CreatedAt:       timeFromString(it.CreatedAt),
		ValidUntil:      timeFromString(it.ValidUntil),
		ProjectScope:    it.ProjectScope,
		Terms:           it.Terms,
		Notes:           it.Notes,
		UpdatedAt:       timeFromString(it.UpdatedAt),
	}
}
