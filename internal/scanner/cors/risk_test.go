package cors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		kind         Kind
		credentialed bool
		want         Risk
	}{
		{NoCors, false, RiskNone},
		{NoCors, true, RiskNone},
		{StaticValue, false, RiskInfo},
		{StaticValue, true, RiskInfo},
		{Wildcard, false, RiskMedium},
		{Wildcard, true, RiskMedium},
		{Reflected, false, RiskMedium},
		{Reflected, true, RiskHigh},
		{NullOrigin, false, RiskMedium},
		{NullOrigin, true, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/credentials=%t", tt.kind, tt.credentialed), func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(Classification{Kind: tt.kind}, tt.credentialed))
		})
	}
}

func TestRisk_Ordering(t *testing.T) {
	assert.True(t, RiskNone < RiskInfo)
	assert.True(t, RiskInfo < RiskMedium)
	assert.True(t, RiskMedium < RiskHigh)
	assert.Equal(t, "Info", RiskInfo.String())
	assert.Equal(t, "High", RiskHigh.String())
}

func TestDecide(t *testing.T) {
	p := withOrigin(attackerOrigin)
	h := Headers{AllowOrigin: attackerOrigin, HasAllowOrigin: true, AllowCredentials: "true", HasAllowCredentials: true}

	v := Decide(p, h)
	assert.Equal(t, RiskHigh, v.Risk)
	assert.True(t, v.AlertWorthy())
	assert.Equal(t, Reflected, v.Evidence.Classification.Kind)
	assert.Equal(t, attackerOrigin, v.Evidence.SentOrigin)
	assert.True(t, v.Evidence.OriginSent)
	assert.Equal(t, attackerOrigin, v.Evidence.AllowOrigin)
	assert.Equal(t, "true", v.Evidence.AllowCredentials)
	assert.True(t, v.Evidence.Credentialed)

	assert.False(t, Decide(p, Headers{}).AlertWorthy())
}
