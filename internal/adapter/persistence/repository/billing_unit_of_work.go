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
)

// BillingUnitOfWork commits the multi-entity billing writes atomically with
// TransactWriteItems across the quotes, invoices and transactions tables.

type BillingUnitOfWork struct {
	ddb               *dynamodb.Client
	quotesTable       string
	invoicesTable     string
	transactionsTable string
}

var _ interfaces.IBillingUnitOfWork = (*BillingUnitOfWork)(nil)

func NewBillingUnitOfWork(ddb *dynamodb.Client) *BillingUnitOfWork {
	return &BillingUnitOfWork{
		ddb:               ddb,
		quotesTable:       getenvDefault("QUOTES_TABLE", defaultQuotesTableName),
		invoicesTable:     getenvDefault("INVOICES_TABLE", defaultInvoicesTableName),
		transactionsTable: getenvDefault("TRANSACTIONS_TABLE", defaultTransactionsTableName),
	}
}

func (u *BillingUnitOfWork) AcceptQuote(ctx context.Context, quoteID string, inv entities.Invoice) error {
	inv.Version = 1
	invoiceAV, err := attributevalue.MarshalMap(toInvoiceItem(inv))
	if err != nil {
		return err
	}
	guardAV, err := attributevalue.MarshalMap(referenceGuardItem{ID: referenceGuardID(inv.Reference)})
	if err != nil {
		return err
	}
	now := timeToString(time.Now().UTC())

	_, err = u.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(u.invoicesTable),
				Item:                     invoiceAV,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Put: &types.Put{
				TableName:                aws.String(u.invoicesTable),
				Item:                     guardAV,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Update: &types.Update{
				TableName: aws.String(u.quotesTable),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: quoteID},
				},
				ConditionExpression: aws.String("#status = :sent"),
				UpdateExpression:    aws.String("SET #status = :accepted, #updated_at = :updated_at"),
				ExpressionAttributeNames: map[string]string{
					"#status":     "status",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":sent":       &types.AttributeValueMemberS{Value: string(entities.QuoteStatusSent)},
					":accepted":   &types.AttributeValueMemberS{Value: string(entities.QuoteStatusAccepted)},
					":updated_at": &types.AttributeValueMemberS{Value: now},
				},
			}},
		},
	})
	if err != nil {
		if transactionCancelledAt(err, 2) {
			return interfaces.ErrStaleEntity
		}
		if transactionCancelledAt(err, 0) || transactionCancelledAt(err, 1) {
			return interfaces.ErrReferenceTaken
		}
		return err
	}
	return nil
}

func (u *BillingUnitOfWork) RefundTransaction(ctx context.Context, refund entities.Transaction, invoiceID string) error {
	refundAV, err := attributevalue.MarshalMap(toTransactionItem(refund))
	if err != nil {
		return err
	}
	guardAV, err := attributevalue.MarshalMap(transactionGuardItem{
		InvoiceID: referenceGuardID(refund.Reference),
		ID:        guardSortKey,
	})
	if err != nil {
		return err
	}
	now := timeToString(time.Now().UTC())

	_, err = u.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(u.transactionsTable),
				Item:                     refundAV,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Put: &types.Put{
				TableName:                aws.String(u.transactionsTable),
				Item:                     guardAV,
				ConditionExpression:      aws.String("attribute_not_exists(#invoice_id)"),
				ExpressionAttributeNames: map[string]string{"#invoice_id": "invoice_id"},
			}},
			{Update: &types.Update{
				TableName: aws.String(u.invoicesTable),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: invoiceID},
				},
				ConditionExpression: aws.String("attribute_exists(#id)"),
				UpdateExpression:    aws.String("SET #status = :cancelled, #version = #version + :one, #updated_at = :updated_at"),
				ExpressionAttributeNames: map[string]string{
					"#id":         "id",
					"#status":     "status",
					"#version":    "version",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":cancelled":  &types.AttributeValueMemberS{Value: string(entities.InvoiceStatusCancelled)},
					":one":        &types.AttributeValueMemberN{Value: "1"},
					":updated_at": &types.AttributeValueMemberS{Value: now},
				},
			}},
		},
	})
	if err != nil {
		if transactionCancelledAt(err, 0) || transactionCancelledAt(err, 1) {
			return interfaces.ErrReferenceTaken
		}
		return err
	}
	return nil
}
