package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProvenance(t *testing.T) {
	generated := "result = table.drop_duplicates()"
	sum := CodeSum(generated)

	assert.Equal(t, ProvenanceGenerated, ClassifyProvenance(generated, sum))
	assert.Equal(t, ProvenanceUserEdited, ClassifyProvenance(generated+"\n", sum))
	assert.Equal(t, ProvenanceUserAuthored, ClassifyProvenance(generated, ""))
}

func TestCodeSum_Stable(t *testing.T) {
	assert.Equal(t, CodeSum("x = 1"), CodeSum("x = 1"))
	assert.NotEqual(t, CodeSum("x = 1"), CodeSum("x = 2"))
	assert.Len(t, CodeSum(""), 64)
}
