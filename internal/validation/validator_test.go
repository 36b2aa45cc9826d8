package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Lat  string `json:"lat" validate:"required"`
	Lon  string `json:"lon" validate:"required"`
	Note string `json:"note" validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(&sample{Lat: "1", Lon: "2"}))

	verr := ValidateStruct(&sample{Lon: "2", Note: "too long"})
	require.NotNil(t, verr)
	require.Len(t, verr.Fields, 2)

	assert.Equal(t, "lat", verr.Fields[0].Field)
	assert.Equal(t, "required", verr.Fields[0].Tag)
	assert.Equal(t, "lat is required", verr.Fields[0].Message)
	assert.Equal(t, "note must be at most 5 characters", verr.Fields[1].Message)
	assert.Equal(t, "lat is required; note must be at most 5 characters", verr.Error())
}
