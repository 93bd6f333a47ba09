package repository

import (
	"context"
	"strconv"
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultInvoicesTableName = "invoices"

type invoiceItem struct {
	ID        string `dynamodbav:"id"`
	Reference string `dynamodbav:"reference"`
	ClientID  string `dynamodbav:"client_id"`
	Amount    string `dynamodbav:"amount"`
	Subtotal  string `dynamodbav:"subtotal"`
	Tax       string `dynamodbav:"tax"`
	Status    string `dynamodbav:"status"`
	IssuedAt  string `dynamodbav:"issued_at"`
	DueDate   string `dynamodbav:"due_date"`
	Notes     string `dynamodbav:"notes,omitempty"`
	Version   int64  `dynamodbav:"version"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// InvoiceDynamoRepository persists Invoice entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//
// Every write that replaces invoice state is conditioned on the version
// attribute the caller read, which is how settlement and field updates lose
// cleanly instead of clobbering each other.

type InvoiceDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IInvoiceRepository = (*InvoiceDynamoRepository)(nil)

func NewInvoiceDynamoRepository(ddb *dynamodb.Client) *InvoiceDynamoRepository {
	return &InvoiceDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("INVOICES_TABLE", defaultInvoicesTableName),
	}
}

func (r *InvoiceDynamoRepository) Create(ctx context.Context, inv entities.Invoice) (entities.Invoice, error) {
	inv.Version = 1
	av, err := attributevalue.MarshalMap(toInvoiceItem(inv))
	if err != nil {
		return entities.Invoice{}, err
	}
	guard, err := attributevalue.MarshalMap(referenceGuardItem{ID: referenceGuardID(inv.Reference)})
	if err != nil {
		return entities.Invoice{}, err
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
			return entities.Invoice{}, interfaces.ErrReferenceTaken
		}
		return entities.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if len(out.Item) == 0 {
		return entities.Invoice{}, nil
	}

	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it), nil
}

func (r *InvoiceDynamoRepository) Update(ctx context.Context, inv entities.Invoice) (entities.Invoice, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: inv.ID},
		},
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		UpdateExpression: aws.String("SET #client_id = :client_id, #amount = :amount, #subtotal = :subtotal, #tax = :tax, " +
			"#status = :status, #issued_at = :issued_at, #due_date = :due_date, #notes = :notes, " +
			"#version = :next, #updated_at = :updated_at"),
		ExpressionAttributeNames: mergeNames(map[string]string{
			"#client_id":  "client_id",
			"#amount":     "amount",
			"#subtotal":   "subtotal",
			"#tax":        "tax",
			"#status":     "status",
			"#issued_at":  "issued_at",
			"#due_date":   "due_date",
			"#notes":      "notes",
			"#version":    "version",
			"#updated_at": "updated_at",
		}, map[string]string{"#id": "id"}),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":client_id":  &types.AttributeValueMemberS{Value: inv.ClientID},
			":amount":     &types.AttributeValueMemberS{Value: decimalToString(inv.Amount)},
			":subtotal":   &types.AttributeValueMemberS{Value: decimalToString(inv.Subtotal)},
			":tax":        &types.AttributeValueMemberS{Value: decimalToString(inv.Tax)},
			":status":     &types.AttributeValueMemberS{Value: string(inv.Status)},
			":issued_at":  &types.AttributeValueMemberS{Value: timeToString(inv.IssuedAt)},
			":due_date":   &types.AttributeValueMemberS{Value: timeToString(inv.DueDate)},
			":notes":      &types.AttributeValueMemberS{Value: inv.Notes},
			":expected":   &types.AttributeValueMemberN{Value: strconv.FormatInt(inv.Version, 10)},
			":next":       &types.AttributeValueMemberN{Value: strconv.FormatInt(inv.Version+1, 10)},
			":updated_at": &types.AttributeValueMemberS{Value: timeToString(time.Now().UTC())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Invoice{}, interfaces.ErrStaleEntity
		}
		return entities.Invoice{}, err
	}

	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it), nil
}

func (r *InvoiceDynamoRepository) UpdateStatus(ctx context.Context, id string, status entities.InvoiceStatus, expectedVersion int64) (entities.Invoice, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		UpdateExpression:    aws.String("SET #status = :status, #version = :next, #updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#status":     "status",
			"#version":    "version",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(status)},
			":expected":   &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
			":next":       &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion+1, 10)},
			":updated_at": &types.AttributeValueMemberS{Value: timeToString(time.Now().UTC())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Invoice{}, interfaces.ErrStaleEntity
		}
		return entities.Invoice{}, err
	}

	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it), nil
}

func (r *InvoiceDynamoRepository) TransitionStatus(ctx context.Context, id string, from, to entities.InvoiceStatus) (bool, error) {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("#status = :from"),
		UpdateExpression:    aws.String("SET #status = :to, #version = #version + :one, #updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#status":     "status",
			"#version":    "version",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from":       &types.AttributeValueMemberS{Value: string(from)},
			":to":         &types.AttributeValueMemberS{Value: string(to)},
			":one":        &types.AttributeValueMemberN{Value: "1"},
			":updated_at": &types.AttributeValueMemberS{Value: timeToString(time.Now().UTC())},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Already moved on, nothing to do.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *InvoiceDynamoRepository) Delete(ctx context.Context, id, reference string) error {
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
					":draft": &types.AttributeValueMemberS{Value: string(entities.InvoiceStatusDraft)},
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

func (r *InvoiceDynamoRepository) List(ctx context.Context, f interfaces.InvoiceFilter) ([]entities.Invoice, string, error) {
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

	invoices := make([]entities.Invoice, 0, len(out.Items))
	for _, raw := range out.Items {
		var it invoiceItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, "", err
		}
		invoices = append(invoices, fromInvoiceItem(it))
	}
	return invoices, encodeCursor(out.LastEvaluatedKey), nil
}

func (r *InvoiceDynamoRepository) ListPastDueSent(ctx context.Context, now time.Time) ([]entities.Invoice, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#status = :sent AND #due_date < :now"),
		ExpressionAttributeNames: map[string]string{
			"#status":   "status",
			"#due_date": "due_date",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent": &types.AttributeValueMemberS{Value: string(entities.InvoiceStatusSent)},
			":now":  &types.AttributeValueMemberS{Value: timeToString(now)},
		},
	}

	var invoices []entities.Invoice
	for {
		out, err := r.ddb.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it invoiceItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			invoices = append(invoices, fromInvoiceItem(it))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return invoices, nil
}

func toInvoiceItem(inv entities.Invoice) invoiceItem {
	return invoiceItem{
		ID:        inv.ID,
		Reference: inv.Reference,
		ClientID:  inv.ClientID,
		Amount:    decimalToString(inv.Amount),
		Subtotal:  decimalToString(inv.Subtotal),
		Tax:       decimalToString(inv.Tax),
		Status:    string(inv.Status),
		IssuedAt:  timeToString(inv.IssuedAt),
		DueDate:   timeToString(inv.DueDate),
		Notes:     inv.Notes,
		Version:   inv.Version,
		CreatedAt: timeToString(inv.CreatedAt),
		UpdatedAt: timeToString(inv.UpdatedAt),
	}
}

func fromInvoiceItem(it invoiceItem) entities.Invoice {
	return entities.Invoice{
		ID:        it.ID,
		Reference: it.Reference,
		ClientID:  it.ClientID,
		Amount:    decimalFromString(it.Amount),
		Subtotal:  decimalFromString(it.Subtotal),
		Tax:       decimalFromString(it.Tax),
		Status:    entities.InvoiceStatus(it.Status),
		IssuedAt:  timeFromString(it.IssuedAt),
		DueDate:   timeFromString(it.DueDate),
		Notes:     it.Notes,
		Version:   it.Version,
		CreatedAt: timeFromString(it.CreatedAt),
		UpdatedAt: timeFromString(it.UpdatedAt),
	}
}
