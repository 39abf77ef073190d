package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Price    decimal.Decimal  `validate:"gt=0"`
	Discount *decimal.Decimal `validate:"omitempty,gte=0,lte=100"`
	Code     string           `validate:"required,coupon_code"`
	Currency string           `validate:"required,iso4217"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Install(v)
	return v
}

func TestInstallAcceptsValidInput(t *testing.T) {
	d := decimal.NewFromInt(20)
	err := newValidator().Struct(sample{
		Price:    decimal.RequireFromString("15.00"),
		Discount: &d,
		Code:     "launch-20",
		Currency: "USD",
	})
	assert.NoError(t, err)
}

func TestInstallRejectsInvalidInput(t *testing.T) {
	d := decimal.NewFromInt(120)
	err := newValidator().Struct(sample{
		Price:    decimal.Zero,
		Discount: &d,
		Code:     "x!",
		Currency: "dollars",
	})
	require.Error(t, err)

	fields := Fields(err)
	tags := map[string]string{}
	for _, f := range fields {
		tags[f.Field] = f.Tag
		assert.NotEmpty(t, f.Message)
	}
	assert.Equal(t, "gt", tags["Price"])
	assert.Equal(t, "lte", tags["Discount"])
	assert.Equal(t, "coupon_code", tags["Code"])
	assert.Equal(t, "iso4217", tags["Currency"])
}

func TestIsCouponCode(t *testing.T) {
	assert.True(t, IsCouponCode("SPRING_2026"))
	assert.False(t, IsCouponCode("ab"))
	assert.False(t, IsCouponCode("has space"))
	assert.Nil(t, Fields(assert.AnError))
}
