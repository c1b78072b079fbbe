package dynamo

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_LevelAndProgress(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"verification_progress": domain.StatusInProgress,
		"verification_level":    domain.LevelPhone,
	})
	require.NoError(t, err)
	// sorted: verification_level < verification_progress
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "verification_level", "#f1": "verification_progress"}, ue.Names)
	lvl, ok := ue.Values[":v0"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "phone", lvl.Value)
}

func TestBuildUpdateExpr_StableAcrossCalls(t *testing.T) {
	updates := map[string]interface{}{
		"phone":               "+14155550100",
		"country_code":        "+1",
		"international_phone": "4155550100",
	}
	first, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := buildUpdateExpr(updates)
		require.NoError(t, err)
		assert.Equal(t, first.Expr, again.Expr)
		assert.Equal(t, first.Names, again.Names)
	}
	assert.Equal(t, "country_code", first.Names["#f0"])
}

func TestBuildUpdateExpr_NestedStruct(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"billing_info": domain.BillingInfo{StreetAddress: "1 Main St", City: "Lagos", Region: "LA", ZipCode: "100001", Country: "NG"},
	})
	require.NoError(t, err)
	m, ok := ue.Values[":v0"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Lagos"}, m.Value["city"])
}

func TestBuildUpdateExpr_Empty(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestConditionFailed(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	err := conditionFailed(ccf)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, isConflict(err))

	other := errors.New("throttled")
	assert.Same(t, other, conditionFailed(other))
	assert.False(t, isConflict(other))
}
