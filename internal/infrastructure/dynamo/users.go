package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-kyc/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// PK: user_id. GSIs: email-index, verification_id-index, phone-index.
type UserRepo struct {
	client    API
	tableName string
}

func NewUserRepo(client API, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Put inserts a new user. An existing user_id is rejected with domain.ErrConflict.
func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	return conditionFailed(err)
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryOne(ctx, indexEmail, fieldEmail, email)
}

func (r *UserRepo) GetByVerificationID(ctx context.Context, verificationID string) (*domain.User, error) {
	return r.queryOne(ctx, indexVerificationID, fieldVerificationID, verificationID)
}

// FindByPhone returns every user whose verified E.164 phone equals phone.
func (r *UserRepo) FindByPhone(ctx context.Context, phone string) ([]domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexPhone),
		KeyConditionExpression:    aws.String("#p = :p"),
		ExpressionAttributeNames:  map[string]string{"#p": fieldPhone},
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": &types.AttributeValueMemberS{Value: phone}},
	})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// PhoneClaimed reports whether a user other than excludeUserID already owns
// the E.164 number.
func (r *UserRepo) PhoneClaimed(ctx context.Context, e164, excludeUserID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexPhone),
		KeyConditionExpression: aws.String("#p = :p"),
		FilterExpression:       aws.String("#uid <> :uid"),
		ExpressionAttributeNames: map[string]string{
			"#p":   fieldPhone,
			"#uid": fieldUserID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: e164},
			":uid": &types.AttributeValueMemberS{Value: excludeUserID},
		},
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// Update applies a SET of the given fields to an existing user and returns
// the stored user after the write.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, userID, ue.Expr, ue.Names, ue.Values)
}

// AddRole adds role to the user's roles string set.
func (r *UserRepo) AddRole(ctx context.Context, userID, role string) (*domain.User, error) {
	return r.mutateRoles(ctx, userID, "ADD", role)
}

// RemoveRole deletes role from the user's roles string set.
func (r *UserRepo) RemoveRole(ctx context.Context, userID, role string) (*domain.User, error) {
	return r.mutateRoles(ctx, userID, "DELETE", role)
}

func (r *UserRepo) mutateRoles(ctx context.Context, userID, action, role string) (*domain.User, error) {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return r.update(ctx, userID,
		fmt.Sprintf("%s #r :r SET #u = :u", action),
		map[string]string{"#r": fieldRoles, "#u": fieldUpdatedAt},
		map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberSS{Value: []string{role}},
			":u": now,
		})
}

func (r *UserRepo) update(ctx context.Context, userID, expr string, names map[string]string, values map[string]types.AttributeValue) (*domain.User, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if err = conditionFailed(err); isConflict(err) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) queryOne(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
