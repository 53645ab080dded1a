package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/orghub-api/internal/domain"
)

// ApprovalRepo provides typed DynamoDB operations for the approvals table.
type ApprovalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewApprovalRepo(client *dynamodb.Client, tableName string) *ApprovalRepo {
	return &ApprovalRepo{client: client, tableName: tableName}
}

func (r *ApprovalRepo) Put(ctx context.Context, a *domain.Approval) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal approval: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ApprovalRepo) Get(ctx context.Context, approvalID string) (*domain.Approval, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("approval_id", approvalID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("approval not found: %w", domain.ErrNotFound)
	}
	var a domain.Approval
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByStatus queries the status-index GSI.
func (r *ApprovalRepo) ListByStatus(ctx context.Context, status string) ([]domain.Approval, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("status-index"),
		KeyConditionExpression: aws.String("#st = :s"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: status},
		},
	})
	if err != nil {
		return nil, err
	}
	var approvals []domain.Approval
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &approvals); err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *ApprovalRepo) Update(ctx context.Context, approvalID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("approval_id", approvalID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
