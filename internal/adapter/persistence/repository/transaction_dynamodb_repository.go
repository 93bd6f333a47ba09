package repository

import (
	"context"
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultTransactionsTableName = "transactions"
	transactionsIDIndex          = "id-index"

	// Sort key of the per-reference guard rows. Guard partitions hold exactly
	// one row, so any constant works.
	guardSortKey = "guard"
)

type transactionItem struct {
	InvoiceID      string                 `dynamodbav:"invoice_id"`
	ID             string                 `dynamodbav:"id"`
	Reference      string                 `dynamodbav:"reference"`
	Type           string                 `dynamodbav:"type"`
	Amount         string                 `dynamodbav:"amount"`
	Status         string                 `dynamodbav:"status"`
	PaymentMethod  string                 `dynamodbav:"payment_method,omitempty"`
	PaymentDetails map[string]interface{} `dynamodbav:"payment_details,omitempty"`
	Notes          string                 `dynamodbav:"notes,omitempty"`
	CreatedAt      string                 `dynamodbav:"created_at"`
	UpdatedAt      string                 `dynamodbav:"updated_at"`
}

type transactionGuardItem struct {
	InvoiceID string `dynamodbav:"invoice_id"`
	ID        string `dynamodbav:"id"`
}

// TransactionDynamoRepository persists ledger entries in DynamoDB.
//
// Table requirements:
//   - PK: invoice_id (string), SK: id (string)
//   - GSI: id-index (PK: id)
//
// Keying by invoice keeps an invoice's whole ledger in one partition, so
// SumCompletedPayments runs as a strongly consistent Query and settlement
// sees its own just-committed writes. Lookups by transaction id go through
// the GSI.

type TransactionDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.ITransactionRepository = (*TransactionDynamoRepository)(nil)

func NewTransactionDynamoRepository(ddb *dynamodb.Client) *TransactionDynamoRepository {
	return &TransactionDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("TRANSACTIONS_TABLE", defaultTransactionsTableName),
	}
}

func (r *TransactionDynamoRepository) Create(ctx context.Context, t entities.Transaction) (entities.Transaction, error) {
	av, err := attributevalue.MarshalMap(toTransactionItem(t))
	if err != nil {
		return entities.Transaction{}, err
	}
	guard, err := attributevalue.MarshalMap(transactionGuardItem{
		InvoiceID: referenceGuardID(t.Reference),
		ID:        guardSortKey,
	})
	if err != nil {
		return entities.Transaction{}, err
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
				ConditionExpression:      aws.String("attribute_not_exists(#invoice_id)"),
				ExpressionAttributeNames: map[string]string{"#invoice_id": "invoice_id"},
			}},
		},
	})
	if err != nil {
		if transactionCancelledAt(err, 1) || transactionCancelledAt(err, 0) {
			return entities.Transaction{}, interfaces.ErrReferenceTaken
		}
		return entities.Transaction{}, err
	}
	return t, nil
}

func (r *TransactionDynamoRepository) GetByID(ctx context.Context, id string) (entities.Transaction, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(transactionsIDIndex),
		KeyConditionExpression: aws.String("#id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Transaction{}, err
	}
	if len(out.Items) == 0 {
		return entities.Transaction{}, nil
	}

	var it transactionItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Transaction{}, err
	}
	return fromTransactionItem(it), nil
}

func (r *TransactionDynamoRepository) Update(ctx context.Context, t entities.Transaction) (entities.Transaction, error) {
	details, err := attributevalue.Marshal(t.PaymentDetails)
	if err != nil {
		return entities.Transaction{}, err
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"invoice_id": &types.AttributeValueMemberS{Value: t.InvoiceID},
			"id":         &types.AttributeValueMemberS{Value: t.ID},
		},
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression: aws.String("SET #status = :status, #amount = :amount, #payment_method = :payment_method, " +
			"#payment_details = :payment_details, #notes = :notes, #updated_at = :updated_at"),
		ExpressionAttributeNames: mergeNames(map[string]string{
			"#status":          "status",
			"#amount":          "amount",
			"#payment_method":  "payment_method",
			"#payment_details": "payment_details",
			"#notes":           "notes",
			"#updated_at":      "updated_at",
		}, map[string]string{"#id": "id"}),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":          &types.AttributeValueMemberS{Value: string(t.Status)},
			":amount":          &types.AttributeValueMemberS{Value: decimalToString(t.Amount)},
			":payment_method":  &types.AttributeValueMemberS{Value: t.PaymentMethod},
			":payment_details": details,
			":notes":           &types.AttributeValueMemberS{Value: t.Notes},
			":updated_at":      &types.AttributeValueMemberS{Value: timeToString(time.Now().UTC())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// The row is gone; surface it instead of reporting a write that
			// never landed.
			return entities.Transaction{}, interfaces.ErrStaleEntity
		}
		return entities.Transaction{}, err
	}

	var it transactionItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Transaction{}, err
	}
	return fromTransactionItem(it), nil
}

func (r *TransactionDynamoRepository) List(ctx context.Context, f interfaces.TransactionFilter) ([]entities.Transaction, string, error) {
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
	if f.Type != "" {
		*input.FilterExpression += " AND #type = :type"
		input.ExpressionAttributeNames["#type"] = "type"
		values[":type"] = &types.AttributeValueMemberS{Value: string(f.Type)}
	}
	if f.InvoiceID != "" {
		*input.FilterExpression += " AND #invoice_id = :invoice_id"
		input.ExpressionAttributeNames["#invoice_id"] = "invoice_id"
		values[":invoice_id"] = &types.AttributeValueMemberS{Value: f.InvoiceID}
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

	transactions := make([]entities.Transaction, 0, len(out.Items))
	for _, raw := range out.Items {
		var it transactionItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, "", err
		}
		transactions = append(transactions, fromTransactionItem(it))
	}
	return transactions, encodeCursor(out.LastEvaluatedKey), nil
}

func (r *TransactionDynamoRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#invoice_id = :invoice_id"),
		ExpressionAttributeNames: map[string]string{
			"#invoice_id": "invoice_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":invoice_id": &types.AttributeValueMemberS{Value: invoiceID},
		},
		ConsistentRead: aws.Bool(true),
	}

	var transactions []entities.Transaction
	for {
		out, err := r.ddb.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it transactionItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			transactions = append(transactions, fromTransactionItem(it))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return transactions, nil
}

func (r *TransactionDynamoRepository) SumCompletedPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#invoice_id = :invoice_id"),
		FilterExpression:       aws.String("#type = :payment AND #status = :completed"),
		ExpressionAttributeNames: map[string]string{
			"#invoice_id": "invoice_id",
			"#type":       "type",
			"#status":     "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":invoice_id": &types.AttributeValueMemberS{Value: invoiceID},
			":payment":    &types.AttributeValueMemberS{Value: string(entities.TransactionTypePayment)},
			":completed":  &types.AttributeValueMemberS{Value: string(entities.TransactionStatusCompleted)},
		},
		ConsistentRead: aws.Bool(true),
	}

	total := decimal.Zero
	for {
		out, err := r.ddb.Query(ctx, input)
		if err != nil {
			return decimal.Zero, err
		}
		for _, raw := range out.Items {
			var it transactionItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return decimal.Zero, err
			}
			total = total.Add(decimalFromString(it.Amount))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return total, nil
}

func toTransactionItem(t entities.Transaction) transactionItem {
	return transactionItem{
		InvoiceID:      t.InvoiceID,
		ID:             t.ID,
		Reference:      t.Reference,
		Type:           string(t.Type),
		Amount:         decimalToString(t.Amount),
		Status:         string(t.Status),
		PaymentMethod:  t.PaymentMethod,
		PaymentDetails: t.PaymentDetails,
		Notes:          t.Notes,
		CreatedAt:      timeToString(t.CreatedAt),
		UpdatedAt:      timeToString(t.UpdatedAt),
	}
}

func fromTransactionItem(it transactionItem) entities.Transaction {
	return entities.Transaction{
		InvoiceID:      it.InvoiceID,
		ID:             it.ID,
		Reference:      it.Reference,
		Type:           entities.TransactionType(it.Type),
		Amount:         decimalFromString(it.Amount),
		Status:         entities.TransactionStatus(it.Status),
		PaymentMethod:  it.PaymentMethod,
		PaymentDetails: it.PaymentDetails,
		Notes:          it.Notes,
		CreatedAt:      timeFromString(it.CreatedAt),
		UpdatedAt:      timeFromString(it.UpdatedAt),
	}
}
